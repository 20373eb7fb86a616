package render

// Options controls the rendered image.
type Options struct {
	Width  int
	Height int
	// Hints draws the chart's hint line at the bottom of the image.
	Hints bool
}

// Size limits of a rendered chart. The height follows the width at a 0.33 aspect.
const (
	defaultWidth = 1200
	minWidth     = 800
	minHeight    = 280
	maxHeight    = 520
)

// DefaultOptions is a 1200x396 chart with hints on.
func DefaultOptions() Options {
	return Options{Width: defaultWidth, Hints: true}.normalized()
}

// normalized widens o to the minimum chart width. An explicit height is kept; a missing
// one is derived from the width and clamped to [minHeight, maxHeight].
func (o Options) normalized() Options {
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	o.Width = max(o.Width, minWidth)
	if o.Height <= 0 {
		o.Height = min(max(o.Width*33/100, minHeight), maxHeight)
	}
	return o
}
