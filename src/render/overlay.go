package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type legendEntry struct {
	Name  string
	Color color.Color
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

func drawString(dst *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(text)
}

func textWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

// drawHint draws a small hint string onto the provided image near the bottom-left.
func drawHint(img image.Image, text string) image.Image {
	if img == nil || strings.TrimSpace(text) == "" {
		return img
	}
	rgba := toRGBA(img)
	b := rgba.Bounds()
	pad := 6
	face := basicfont.Face7x13
	tw := textWidth(text)
	x := b.Min.X + 8
	y := b.Max.Y - 6
	bg := image.NewUniform(color.RGBA{A: 200})
	rect := image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+tw+pad, y+pad/2)
	draw.Draw(rgba, rect, bg, image.Point{}, draw.Over)
	// shadow then text
	drawString(rgba, x+1, y+1, text, color.RGBA{A: 180})
	drawString(rgba, x, y, text, color.White)
	return rgba
}

// drawLegend draws a boxed legend with one color swatch per entry in the top-right corner.
func drawLegend(img image.Image, entries []legendEntry) image.Image {
	if img == nil || len(entries) == 0 {
		return img
	}
	rgba := toRGBA(img)
	b := rgba.Bounds()
	const (
		swatch = 10
		line   = 16
		pad    = 6
	)
	tw := 0
	for _, e := range entries {
		if w := textWidth(e.Name); w > tw {
			tw = w
		}
	}
	boxW := pad + swatch + pad + tw + pad
	boxH := pad + line*len(entries) + pad/2
	x0 := b.Max.X - boxW - 12
	y0 := b.Min.Y + 28
	box := image.Rect(x0, y0, x0+boxW, y0+boxH)
	draw.Draw(rgba, box, image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 230}), image.Point{}, draw.Over)
	gray := image.NewUniform(color.RGBA{R: 160, G: 160, B: 160, A: 255})
	for _, edge := range []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+1),
		image.Rect(box.Min.X, box.Max.Y-1, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y, box.Min.X+1, box.Max.Y),
		image.Rect(box.Max.X-1, box.Min.Y, box.Max.X, box.Max.Y),
	} {
		draw.Draw(rgba, edge, gray, image.Point{}, draw.Src)
	}
	for i, e := range entries {
		top := y0 + pad + i*line
		sw := image.Rect(x0+pad, top+1, x0+pad+swatch, top+1+swatch)
		draw.Draw(rgba, sw, image.NewUniform(e.Color), image.Point{}, draw.Src)
		drawString(rgba, x0+pad+swatch+pad, top+swatch, e.Name, color.Black)
	}
	return rgba
}

// drawAxisLabels writes the y label under the title on the left and the x label centered
// at the bottom, above the hint line.
func drawAxisLabels(img image.Image, xLabel, yLabel string, hints bool) image.Image {
	if img == nil || (xLabel == "" && yLabel == "") {
		return img
	}
	rgba := toRGBA(img)
	b := rgba.Bounds()
	fg := color.RGBA{R: 51, G: 51, B: 51, A: 255}
	if yLabel != "" {
		drawString(rgba, b.Min.X+10, b.Min.Y+40, yLabel, fg)
	}
	if xLabel != "" {
		y := b.Max.Y - 8
		if hints {
			y -= 20
		}
		drawString(rgba, b.Min.X+(b.Dx()-textWidth(xLabel))/2, y, xLabel, fg)
	}
	return rgba
}

func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 18, G: 18, B: 18, A: 255}), image.Point{}, draw.Src)
	return img
}
