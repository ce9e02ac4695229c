package store

import (
	"database/sql"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"formulagame/pkg/game"
	"formulagame/pkg/helper"
	"formulagame/pkg/race"
	"formulagame/pkg/tracks"
)

var ErrNotFound = errors.New("not found")

// TrackInfo describes a stored track without its boundaries.
type TrackInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ResultRecord struct {
	ID       int64     `json:"id"`
	Track    string    `json:"track"`
	Winner   string    `json:"winner"`
	Draw     bool      `json:"draw"`
	Distance float64   `json:"distance"`
	Moves    int       `json:"moves"`
	Message  string    `json:"message"`
	PlayedAt time.Time `json:"playedAt"`
}

type TelegramUser struct {
	ID     string
	Name   string
	ChatID string
}

// Manager keeps tracks, race results and winner subscribers in sqlite.
type Manager struct {
	db *sql.DB
	mu sync.Mutex
}

func NewManager(dbName string) (*Manager, error) {
	db, err := sql.Open("sqlite3", dbName)
	if err != nil {
		log.Printf("error opening database: %s\n", err)
		return nil, errors.Wrap(err, "opening database")
	}

	for _, stmt := range buildCreateTables() {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("error init database: %s\n", err)
			db.Close()
			return nil, errors.Wrap(err, "creating tables")
		}
	}

	return &Manager{
		db: db,
	}, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.db.Close()
}

// SaveTrack stores the encoded track under name, replacing an older one.
func (m *Manager) SaveTrack(name string, data []byte) (TrackInfo, error) {
	if name == "" {
		return TrackInfo{}, errors.New("track name cannot be empty")
	}
	t, paper, err := tracks.Unmarshal(data)
	if err != nil {
		return TrackInfo{}, err
	}
	normalized, err := tracks.Marshal(t, paper)
	if err != nil {
		return TrackInfo{}, err
	}

	info := TrackInfo{
		ID:        helper.ToID(name),
		Name:      name,
		Width:     paper.Width,
		Height:    paper.Height,
		UpdatedAt: time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, args := buildUpsertTrackCommand(info, normalized)
	if _, err := m.db.Exec(stmt, args...); err != nil {
		log.Printf("error saving track %q: %s\n", name, err)
		return TrackInfo{}, errors.Wrapf(err, "saving track %q", name)
	}
	return info, nil
}

func (m *Manager) LoadTrack(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query, args, read := buildSelectTrackCommand(name)
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, wrapQuery(err, "track")
	}
	data, err := read(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "track %q", name)
	}
	return data, nil
}

func (m *Manager) ListTracks() ([]TrackInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query, args, read := buildListTracksCommand()
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, wrapQuery(err, "tracks")
	}
	return read(rows)
}

func (m *Manager) DeleteTrack(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, args := buildDeleteTrackCommand(name)
	res, err := m.db.Exec(stmt, args...)
	if err != nil {
		return errors.Wrapf(err, "deleting track %q", name)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "track %q", name)
	}
	return nil
}

// RecordResult stores the outcome of a race on track.
func (m *Manager) RecordResult(track string, r race.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	winner := r.Name
	if r.Draw {
		winner = "-"
	}
	stmt, args := buildInsertResultCommand(ResultRecord{
		Track:    track,
		Winner:   winner,
		Draw:     r.Draw,
		Distance: r.Distance,
		Moves:    r.Moves,
		Message:  r.Message,
		PlayedAt: time.Now(),
	})
	if _, err := m.db.Exec(stmt, args...); err != nil {
		log.Printf("error recording result: %s\n", err)
		return errors.Wrap(err, "recording result")
	}
	return nil
}

// ListResults returns the latest results, or the best ones of a track
// when track is set.
func (m *Manager) ListResults(track string, limit int) ([]ResultRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	query, args, read := buildListResultsCommand(track, limit)
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, wrapQuery(err, "results")
	}
	return read(rows)
}

// ToggleSubscription subscribes the user to winner announcements, or
// unsubscribes an existing subscriber. It reports the new state.
func (m *Manager) ToggleSubscription(u TelegramUser) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query, args, read := buildSelectSubscriberCommand(u.ID)
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return false, wrapQuery(err, "subscriber")
	}
	subscribed, err := read(rows)
	if err != nil {
		return false, err
	}

	var stmt string
	if subscribed {
		stmt, args = buildDeleteSubscriberCommand(u.ID)
	} else {
		stmt, args = buildInsertSubscriberCommand(u)
	}
	if _, err := m.db.Exec(stmt, args...); err != nil {
		log.Printf("error updating database: %s\n", err)
		return subscribed, errors.Wrap(err, "updating subscription")
	}
	return !subscribed, nil
}

func (m *Manager) ListSubscribers() ([]TelegramUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query, args, read := buildListSubscribersCommand()
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, wrapQuery(err, "subscribers")
	}
	return read(rows)
}

// RecordResults stores every winner event until exitChan fires or winners
// is closed.
func (m *Manager) RecordResults(exitChan <-chan bool, winners <-chan game.Event) {
	for {
		select {
		case <-exitChan:
			return
		case ev, ok := <-winners:
			if !ok {
				return
			}
			if ev.Result == nil {
				continue
			}
			if err := m.RecordResult(ev.Track, *ev.Result); err != nil {
				log.Printf("Error recording result: %s", err.Error())
			}
		}
	}
}
