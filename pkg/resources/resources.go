package resources

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"formulagame/pkg/game"
	"formulagame/pkg/layout"
)

type builder func(filePath string, s game.Snapshot) error

// Manager renders game pictures into a directory served under /resources/.
type Manager struct {
	dir string
}

func NewManager(dir string) (*Manager, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating %s", dir)
		}
	}
	return &Manager{dir: dir}, nil
}

func (m *Manager) Dir() string {
	return m.dir
}

type Resource struct {
	id      string
	dir     string
	builder builder
	prefix  string
	suffix  string
	_type   string
	cached  bool
}

// BuildTrackThumbnail renders the bare track once per id.
func (m *Manager) BuildTrackThumbnail(id string, s game.Snapshot) (Resource, error) {
	r := Resource{
		dir:     m.dir,
		builder: layout.BuildLayoutPNG,
		prefix:  "track_",
		suffix:  ".png",
		_type:   "track",
		cached:  true,
	}

	return r.build(id, trackOnly(s))
}

// BuildRacePNG renders the current race, replacing an older picture.
func (m *Manager) BuildRacePNG(id string, s game.Snapshot) (Resource, error) {
	r := Resource{
		dir:     m.dir,
		builder: layout.BuildLayoutPNG,
		prefix:  "race_",
		suffix:  ".png",
		_type:   "race",
	}

	return r.build(id, s)
}

func (m *Manager) BuildRaceSVG(id string, s game.Snapshot) (Resource, error) {
	r := Resource{
		dir:     m.dir,
		builder: layout.BuildLayoutSVG,
		prefix:  "race_",
		suffix:  ".svg",
		_type:   "svg-race",
	}

	return r.build(id, s)
}

func trackOnly(s game.Snapshot) game.Snapshot {
	return game.Snapshot{
		Paper:      s.Paper,
		Left:       s.Left,
		Right:      s.Right,
		Ready:      s.Ready,
		CheckLines: s.CheckLines,
	}
}

func (r Resource) buildFilePath(id string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s%s%s", r.prefix, id, r.suffix))
}

func (r Resource) IsZero() bool {
	return r.id == ""
}

func (r Resource) String() string {
	return fmt.Sprintf("ID: %s, Type: %s", r.id, r._type)
}

func (r Resource) FilePath() string {
	return r.buildFilePath(r.id)
}

func (r Resource) FileName() string {
	return fmt.Sprintf("%s%s%s", r.prefix, r.id, r.suffix)
}

func (r *Resource) build(id string, s game.Snapshot) (Resource, error) {
	if id == "" {
		return *r, errors.New("id cannot be empty")
	}
	filePath := r.buildFilePath(id)
	_, err := os.Stat(filePath)
	switch {
	case err == nil && r.cached:
		log.Printf("resource for %q already exists\n", id)
	case err == nil || os.IsNotExist(err):
		if err := r.builder(filePath, s); err != nil {
			log.Printf("Error building resource: %s\n", err)
			return *r, err
		}
	default:
		return *r, err
	}

	r.id = id
	return *r, nil
}
