package layout

import (
	"bufio"
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"strings"
	"sync"

	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/llgcode/draw2d/draw2dsvg"
	"github.com/pkg/errors"

	"formulagame/pkg/game"
	"formulagame/pkg/geometry"
	"formulagame/pkg/race"
)

const (
	// CellPNG and CellSVG are the sizes of one square in pixels.
	CellPNG = 12.0
	CellSVG = 16.0
	// margin is the number of empty squares around the paper.
	margin = 1
)

var (
	mu = sync.Mutex{}

	colorPaper     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorGrid      = color.RGBA{0xdd, 0xe6, 0xf0, 0xff}
	colorBoundary  = color.RGBA{0x00, 0x00, 0x00, 0xff}
	colorCheckLine = color.RGBA{0xbb, 0xbb, 0xbb, 0xff}
	colorStart     = color.RGBA{0x2e, 0x9e, 0x44, 0xff}
	colorFinish    = color.RGBA{0xd0, 0x30, 0x30, 0xff}
	colorClean     = color.RGBA{0x2e, 0x9e, 0x44, 0xff}
	colorCollision = color.RGBA{0xf0, 0x90, 0x20, 0xff}
	colorRacers    = [2]color.RGBA{{0xd0, 0x30, 0x30, 0xff}, {0x20, 0x60, 0xd0, 0xff}}
)

// SvgMetadata is appended to every SVG as a comment, so that a page can
// map grid squares onto the picture.
type SvgMetadata struct {
	Cell    float64 `json:"cell"`
	Margin  int     `json:"margin"`
	Columns int     `json:"columns"`
	Rows    int     `json:"rows"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

func canvasSize(s game.Snapshot, cell float64) (float64, float64) {
	width := float64(s.Paper.Width+2*margin) * cell
	height := float64(s.Paper.Height+2*margin) * cell
	return width, height
}

func BuildLayoutPNG(path string, s game.Snapshot) error {
	mu.Lock()
	defer mu.Unlock()
	width, height := canvasSize(s, CellPNG)

	dest := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	gc := draw2dimg.NewGraphicContext(dest)

	drawImage(gc, s, CellPNG, width, height)
	if err := draw2dimg.SaveToPngFile(path, dest); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return nil
}

func BuildLayoutSVG(path string, s game.Snapshot) error {
	mu.Lock()
	defer mu.Unlock()
	width, height := canvasSize(s, CellSVG)

	dest := draw2dsvg.NewSvg()
	gc := draw2dsvg.NewGraphicContext(dest)

	drawImage(gc, s, CellSVG, width, height)
	if err := draw2dsvg.SaveToSvgFile(path, dest); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}

	metadata := SvgMetadata{
		Cell:    CellSVG,
		Margin:  margin,
		Columns: s.Paper.Width,
		Rows:    s.Paper.Height,
		Width:   width,
		Height:  height,
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	buffer := new(bytes.Buffer)
	if err := json.Compact(buffer, jsonBytes); err != nil {
		return err
	}

	// append metadata to svg file as comments in the xml
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, _ = f.Write([]byte("\n<!--\n"))
	_, _ = f.Write(buffer.Bytes())
	_, err = f.Write([]byte("\n-->"))

	return err
}

// ReadSvgMetadata reads back the metadata comment of an SVG built by
// BuildLayoutSVG.
func ReadSvgMetadata(path string) (SvgMetadata, error) {
	var metadata SvgMetadata
	f, err := os.Open(path)
	if err != nil {
		return metadata, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lastLine, secondLastLine string
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		secondLastLine = lastLine
		lastLine = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		return metadata, err
	}
	if lastLine != "-->" || secondLastLine == "" {
		return metadata, errors.Errorf("%s has no layout metadata", path)
	}
	if err := json.Unmarshal([]byte(secondLastLine), &metadata); err != nil {
		return metadata, errors.Wrap(err, "decoding layout metadata")
	}
	return metadata, nil
}

func drawImage(gc draw2d.GraphicContext, s game.Snapshot, cell, width, height float64) {
	gc.Save()
	gc.SetFillColor(colorPaper)
	draw2dkit.Rectangle(gc, 0, 0, width, height)
	gc.Fill()
	gc.Restore()

	drawGrid(gc, s, cell)
	for _, line := range s.CheckLines {
		drawSegment(gc, line, colorCheckLine, cell*0.1, cell)
	}
	drawPolyline(gc, s.Left, colorBoundary, cell*0.2, cell)
	drawPolyline(gc, s.Right, colorBoundary, cell*0.2, cell)
	if len(s.Left) > 0 && len(s.Right) > 0 {
		drawSegment(gc, geometry.NewSegment(s.Left[0], s.Right[0]), colorStart, cell*0.2, cell)
		if s.Ready {
			drawSegment(gc, geometry.NewSegment(s.Left[len(s.Left)-1], s.Right[len(s.Right)-1]), colorFinish, cell*0.2, cell)
		}
	}

	for i, r := range s.Racers {
		drawPolyline(gc, r.Points, colorRacers[i%2], cell*0.15, cell)
		for _, p := range r.Points {
			drawDot(gc, p, colorRacers[i%2], cell*0.2, cell)
		}
	}
	for _, p := range s.StartOptions {
		drawDot(gc, p, colorClean, cell*0.25, cell)
	}
	for _, p := range s.BuildOptions {
		drawDot(gc, p, colorCollision, cell*0.25, cell)
	}
	for _, c := range s.Candidates {
		switch c.Kind {
		case race.Clean:
			drawDot(gc, c.Point, colorClean, cell*0.25, cell)
		case race.Collision:
			drawDot(gc, c.Point, colorCollision, cell*0.25, cell)
		}
	}
}

func drawGrid(gc draw2d.GraphicContext, s game.Snapshot, cell float64) {
	gc.Save()
	gc.SetStrokeColor(colorGrid)
	gc.SetLineWidth(cell * 0.05)
	top, bottom := toCanvas(0, cell), toCanvas(float64(s.Paper.Height), cell)
	for x := 0; x <= s.Paper.Width; x++ {
		cx := toCanvas(float64(x), cell)
		gc.MoveTo(cx, top)
		gc.LineTo(cx, bottom)
	}
	left, right := toCanvas(0, cell), toCanvas(float64(s.Paper.Width), cell)
	for y := 0; y <= s.Paper.Height; y++ {
		cy := toCanvas(float64(y), cell)
		gc.MoveTo(left, cy)
		gc.LineTo(right, cy)
	}
	gc.Stroke()
	gc.Restore()
}

func drawSegment(gc draw2d.GraphicContext, s geometry.Segment, c color.Color, lineWidth, cell float64) {
	drawPolyline(gc, []geometry.Point{s.First, s.Last}, c, lineWidth, cell)
}

func drawPolyline(gc draw2d.GraphicContext, points []geometry.Point, c color.Color, lineWidth, cell float64) {
	if len(points) < 2 {
		return
	}
	gc.Save()
	gc.SetStrokeColor(c)
	gc.SetLineWidth(lineWidth)
	gc.MoveTo(toCanvas(points[0].X, cell), toCanvas(points[0].Y, cell))
	for _, p := range points[1:] {
		gc.LineTo(toCanvas(p.X, cell), toCanvas(p.Y, cell))
	}
	gc.Stroke()
	gc.Restore()
}

func drawDot(gc draw2d.GraphicContext, p geometry.Point, c color.Color, radius, cell float64) {
	gc.Save()
	gc.SetFillColor(c)
	draw2dkit.Circle(gc, toCanvas(p.X, cell), toCanvas(p.Y, cell), radius)
	gc.Fill()
	gc.Restore()
}

func toCanvas(v, cell float64) float64 {
	return (v + margin) * cell
}
