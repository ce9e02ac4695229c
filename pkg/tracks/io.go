package tracks

import (
	"encoding/json"

	"github.com/pkg/errors"

	"formulagame/pkg/geometry"
)

var ErrMalformedTrack = errors.New("malformed track")

type trackDocument struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Left   [][2]int `json:"left"`
	Right  [][2]int `json:"right"`
}

// Marshal encodes the track boundaries together with the paper size.
func Marshal(t *Track, paper Paper) ([]byte, error) {
	doc := trackDocument{
		Width:  paper.Width,
		Height: paper.Height,
		Left:   toPairs(t.Left()),
		Right:  toPairs(t.Right()),
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding track")
	}
	return data, nil
}

// Unmarshal decodes a stored track. The returned track is ready and has its
// build indices at the end of both sides.
func Unmarshal(data []byte) (*Track, Paper, error) {
	var doc trackDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Paper{}, errors.Wrapf(ErrMalformedTrack, "decoding track: %s", err.Error())
	}
	if len(doc.Left) < 2 || len(doc.Right) < 2 {
		return nil, Paper{}, errors.Wrapf(ErrMalformedTrack, "track sides have %d and %d points", len(doc.Left), len(doc.Right))
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, Paper{}, errors.Wrapf(ErrMalformedTrack, "paper size %dx%d", doc.Width, doc.Height)
	}

	t := NewTrack()
	t.SetLines(fromPairs(doc.Left), fromPairs(doc.Right))
	return t, Paper{Width: doc.Width, Height: doc.Height}, nil
}

func toPairs(line []geometry.Point) [][2]int {
	pairs := make([][2]int, 0, len(line))
	for _, p := range line {
		pairs = append(pairs, [2]int{p.IntX(), p.IntY()})
	}
	return pairs
}

func fromPairs(pairs [][2]int) []geometry.Point {
	line := make([]geometry.Point, 0, len(pairs))
	for _, pair := range pairs {
		line = append(line, geometry.NewPoint(float64(pair[0]), float64(pair[1])))
	}
	return line
}
