package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/iafilius/StakeCostModel/src/analysis"
	"github.com/iafilius/StakeCostModel/src/logx"
)

// WritePNG encodes img to dir/name.png, creating dir when needed, and returns the path.
func WritePNG(dir, name string, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create out dir: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(dir, name+".png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// RenderAll renders and writes every chart into outDir. A chart that fails is logged and
// skipped; the remaining charts are still written. Progress is drawn to progress when it
// is not nil.
func RenderAll(charts []analysis.Chart, outDir string, opts Options, progress io.Writer) ([]string, error) {
	var bar *progressbar.ProgressBar
	if progress != nil && len(charts) > 0 {
		bar = progressbar.NewOptions(
			len(charts),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(15),
			progressbar.OptionSetDescription("rendering charts"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	var paths []string
	var errs []error
	for _, c := range charts {
		path, err := renderOne(c, outDir, opts)
		if err != nil {
			logx.Warnf("chart %s skipped: %v", c.Name, err)
			errs = append(errs, err)
		} else {
			logx.Debugf("wrote %s", path)
			paths = append(paths, path)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(progress)
	}
	return paths, errors.Join(errs...)
}

func renderOne(c analysis.Chart, outDir string, opts Options) (string, error) {
	img, err := Render(c, opts)
	if err != nil {
		return "", err
	}
	return WritePNG(outDir, c.Name, img)
}
