package store

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

func buildCreateTables() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		data TEXT NOT NULL,
		updated TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		track TEXT NOT NULL,
		winner TEXT NOT NULL,
		draw INTEGER NOT NULL,
		distance REAL NOT NULL,
		moves INTEGER NOT NULL,
		message TEXT NOT NULL,
		played TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS subscribers (
		userid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		chatid TEXT NOT NULL);`,
	}
}

func buildUpsertTrackCommand(info TrackInfo, data []byte) (string, []any) {
	fields := "id, name, width, height, data, updated"
	return `INSERT OR REPLACE INTO tracks (` + fields + `) VALUES (?, ?, ?, ?, ?, ?)`,
		[]any{info.ID, info.Name, info.Width, info.Height, string(data), info.UpdatedAt.UTC().Format(time.RFC3339)}
}

func buildSelectTrackCommand(name string) (string, []any, func(*sql.Rows) ([]byte, error)) {
	return `SELECT data FROM tracks WHERE name = ?`, []any{name}, processSelectTrackRows
}

func processSelectTrackRows(rows *sql.Rows) ([]byte, error) {
	defer rows.Close()

	// name is unique
	if rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		return []byte(data), nil
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

func buildListTracksCommand() (string, []any, func(*sql.Rows) ([]TrackInfo, error)) {
	fields := "id, name, width, height, updated"
	return `SELECT ` + fields + ` FROM tracks ORDER BY name`, nil, processListTracksRows
}

func processListTracksRows(rows *sql.Rows) ([]TrackInfo, error) {
	defer rows.Close()

	infos := make([]TrackInfo, 0)
	for rows.Next() {
		var info TrackInfo
		var updated string
		if err := rows.Scan(&info.ID, &info.Name, &info.Width, &info.Height, &updated); err != nil {
			return infos, err
		}
		info.UpdatedAt = parseTime(updated)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func buildDeleteTrackCommand(name string) (string, []any) {
	return `DELETE FROM tracks WHERE name = ?`, []any{name}
}

func buildInsertResultCommand(r ResultRecord) (string, []any) {
	fields := "track, winner, draw, distance, moves, message, played"
	draw := 0
	if r.Draw {
		draw = 1
	}
	return `INSERT INTO results (` + fields + `) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		[]any{r.Track, r.Winner, draw, r.Distance, r.Moves, r.Message, r.PlayedAt.UTC().Format(time.RFC3339)}
}

func buildListResultsCommand(track string, limit int) (string, []any, func(*sql.Rows) ([]ResultRecord, error)) {
	fields := "id, track, winner, draw, distance, moves, message, played"
	if track == "" {
		return `SELECT ` + fields + ` FROM results ORDER BY id DESC LIMIT ?`, []any{limit}, processListResultsRows
	}
	return `SELECT ` + fields + ` FROM results WHERE track = ? ORDER BY distance, moves LIMIT ?`, []any{track, limit}, processListResultsRows
}

func processListResultsRows(rows *sql.Rows) ([]ResultRecord, error) {
	defer rows.Close()

	records := make([]ResultRecord, 0)
	for rows.Next() {
		var r ResultRecord
		var draw int
		var played string
		if err := rows.Scan(&r.ID, &r.Track, &r.Winner, &draw, &r.Distance, &r.Moves, &r.Message, &played); err != nil {
			return records, err
		}
		r.Draw = draw == 1
		r.PlayedAt = parseTime(played)
		records = append(records, r)
	}
	return records, rows.Err()
}

func buildSelectSubscriberCommand(userID string) (string, []any, func(*sql.Rows) (bool, error)) {
	return `SELECT userid FROM subscribers WHERE userid = ?`, []any{userID}, processExistsRows
}

func processExistsRows(rows *sql.Rows) (bool, error) {
	defer rows.Close()

	found := rows.Next()
	return found, rows.Err()
}

func buildInsertSubscriberCommand(u TelegramUser) (string, []any) {
	return `INSERT OR REPLACE INTO subscribers (userid, name, chatid) VALUES (?, ?, ?)`, []any{u.ID, u.Name, u.ChatID}
}

func buildDeleteSubscriberCommand(userID string) (string, []any) {
	return `DELETE FROM subscribers WHERE userid = ?`, []any{userID}
}

func buildListSubscribersCommand() (string, []any, func(*sql.Rows) ([]TelegramUser, error)) {
	return `SELECT userid, name, chatid FROM subscribers ORDER BY userid`, nil, processListSubscribersRows
}

func processListSubscribersRows(rows *sql.Rows) ([]TelegramUser, error) {
	defer rows.Close()

	users := make([]TelegramUser, 0)
	for rows.Next() {
		var u TelegramUser
		if err := rows.Scan(&u.ID, &u.Name, &u.ChatID); err != nil {
			return users, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func wrapQuery(err error, what string) error {
	return errors.Wrapf(err, "querying %s", what)
}
