package tracks

import "formulagame/pkg/geometry"

const (
	DefaultPaperWidth  = 90
	DefaultPaperHeight = 50
	// paperMargin is added around a loaded track.
	paperMargin = 10
)

// Paper is the squared canvas everything is drawn on.
type Paper struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func DefaultPaper() Paper {
	return Paper{Width: DefaultPaperWidth, Height: DefaultPaperHeight}
}

// PaperFor sizes the paper so the whole track fits with a margin.
func PaperFor(t *Track) Paper {
	return Paper{Width: t.MaxWidth() + paperMargin, Height: t.MaxHeight() + paperMargin}
}

func (p Paper) IsOutside(pt geometry.Point) bool {
	return pt.X > float64(p.Width) || pt.Y > float64(p.Height) || pt.X < 0 || pt.Y < 0
}
