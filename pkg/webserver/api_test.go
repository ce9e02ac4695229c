package webserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"formulagame/pkg/game"
	"formulagame/pkg/race"
	"formulagame/pkg/resources"
	"formulagame/pkg/store"
)

const corridorJSON = `{
	"width": 90,
	"height": 50,
	"left": [[10, 40], [10, 30], [10, 20], [10, 10]],
	"right": [[20, 40], [20, 30], [20, 20], [20, 10]]
}`

type testServer struct {
	*httptest.Server
	resourcesDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	st, err := store.NewManager(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	resDir := filepath.Join(dir, "resources")
	res, err := resources.NewManager(resDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := NewManager(":0", resDir)
	NewAPI(game.NewManager(nil, race.DefaultSettings(), nil), st, res).Register(m.Router())
	srv := httptest.NewServer(m.Router())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, resourcesDir: resDir}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp.StatusCode, data
}

func decode(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unexpected error decoding %s: %v", data, err)
	}
}

type snapshotView struct {
	Stage     string `json:"stage"`
	ActID     int    `json:"actId"`
	TrackName string `json:"trackName"`
	Ready     bool   `json:"ready"`
	Left      []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"left"`
}

func TestStatusCodes(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"snapshot", http.MethodGet, "/api/game", "", http.StatusOK},
		{"prepare without track", http.MethodPost, "/api/race/prepare", "", http.StatusConflict},
		{"reset race without track", http.MethodPost, "/api/race/reset", "", http.StatusConflict},
		{"no computer", http.MethodPost, "/api/game/computer", "", http.StatusConflict},
		{"save unfinished track", http.MethodGet, "/api/track", "", http.StatusConflict},
		{"malformed track", http.MethodPut, "/api/track", `{"left": [[1, 1]]}`, http.StatusBadRequest},
		{"bad point", http.MethodPost, "/api/game/turn", "nope", http.StatusBadRequest},
		{"missing stored track", http.MethodPost, "/api/tracks/nowhere/load", "", http.StatusNotFound},
		{"delete missing track", http.MethodDelete, "/api/tracks/nowhere", "", http.StatusNotFound},
		{"bad settings", http.MethodPut, "/api/game/settings", `{"turns": 6}`, http.StatusBadRequest},
		{"bad opponent", http.MethodPut, "/api/game/settings", `{"opponent": "hard"}`, http.StatusBadRequest},
		{"unknown side", http.MethodPost, "/api/build/up", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := srv.do(t, tc.method, tc.path, tc.body)
			if status != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, status, body)
			}
		})
	}
}

func TestStoredTracks(t *testing.T) {
	srv := newTestServer(t)

	if status, body := srv.do(t, http.MethodPut, "/api/track", corridorJSON); status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	status, body := srv.do(t, http.MethodPut, "/api/tracks/corridor", "")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	var info store.TrackInfo
	decode(t, body, &info)
	if info.Name != "corridor" || info.Width != 30 {
		t.Fatalf("unexpected track info %+v", info)
	}

	_, body = srv.do(t, http.MethodGet, "/api/tracks", "")
	var list []store.TrackInfo
	decode(t, body, &list)
	if len(list) != 1 {
		t.Fatalf("expected one stored track, got %d", len(list))
	}

	srv.do(t, http.MethodPost, "/api/game/reset", "")
	var snap snapshotView
	_, body = srv.do(t, http.MethodGet, "/api/game", "")
	decode(t, body, &snap)
	if len(snap.Left) != 0 || snap.TrackName != "" {
		t.Fatalf("expected an empty paper after reset, got %+v", snap)
	}

	status, body = srv.do(t, http.MethodPost, "/api/tracks/corridor/load", "")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	decode(t, body, &snap)
	if snap.TrackName != "corridor" || len(snap.Left) != 4 || !snap.Ready {
		t.Fatalf("expected the stored corridor, got %+v", snap)
	}

	status, _ = srv.do(t, http.MethodGet, "/api/tracks/corridor/thumbnail", "")
	if status != http.StatusSeeOther {
		t.Fatalf("expected a redirect to the thumbnail, got %d", status)
	}

	if status, _ := srv.do(t, http.MethodDelete, "/api/tracks/corridor", ""); status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
}

func TestRaceOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPut, "/api/track", corridorJSON)

	status, body := srv.do(t, http.MethodPost, "/api/race/prepare", "")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	var options []map[string]interface{}
	decode(t, body, &options)
	if len(options) != 9 {
		t.Fatalf("expected 9 start positions, got %d", len(options))
	}

	for _, p := range []string{`{"x": 15, "y": 40}`, `{"x": 18, "y": 40}`} {
		var out game.TurnOutcome
		_, body := srv.do(t, http.MethodPost, "/api/game/turn", p)
		decode(t, body, &out)
		if !out.Accepted {
			t.Fatalf("expected %s to be accepted", p)
		}
	}

	var out game.TurnOutcome
	_, body = srv.do(t, http.MethodPost, "/api/game/slot/4", "")
	decode(t, body, &out)
	if out.Accepted {
		t.Fatalf("expected the empty center slot to be refused")
	}
	_, body = srv.do(t, http.MethodPost, "/api/game/slot/0", "")
	decode(t, body, &out)
	if !out.Accepted || out.Racer != 1 {
		t.Fatalf("expected slot 0 to move racer 1, got %+v", out)
	}

	var snap snapshotView
	_, body = srv.do(t, http.MethodGet, "/api/game", "")
	decode(t, body, &snap)
	if snap.Stage != "normal-turn" || snap.ActID != 2 {
		t.Fatalf("expected racer 2 on turn, got %+v", snap)
	}

	_, body = srv.do(t, http.MethodGet, "/standings", "")
	if !strings.Contains(string(body), "PL1") || !strings.Contains(string(body), "on turn") {
		t.Fatalf("unexpected standings:\n%s", body)
	}

	status, body = srv.do(t, http.MethodPost, "/api/render/png", "")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", status, body)
	}
	var rendered renderResponse
	decode(t, body, &rendered)
	if _, err := os.Stat(filepath.Join(srv.resourcesDir, strings.TrimPrefix(rendered.File, "/resources/"))); err != nil {
		t.Fatalf("expected the rendered board on disk: %v", err)
	}
	if status, _ := srv.do(t, http.MethodGet, rendered.File, ""); status != http.StatusOK {
		t.Fatalf("expected the board to be served, got %d", status)
	}

	if status, _ := srv.do(t, http.MethodPost, "/api/race/end", ""); status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	_, body = srv.do(t, http.MethodGet, "/api/game", "")
	decode(t, body, &snap)
	if snap.Stage != "build-left" {
		t.Fatalf("expected the build stage after the race, got %s", snap.Stage)
	}
}

func TestBuildOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	var res buildResponse
	_, body := srv.do(t, http.MethodPost, "/api/build/point", `{"x": 10, "y": 40}`)
	decode(t, body, &res)
	if res.Added {
		t.Fatalf("expected no point before a side is chosen")
	}

	var ok okResponse
	_, body = srv.do(t, http.MethodPost, "/api/build/left", "")
	decode(t, body, &ok)
	if !ok.OK {
		t.Fatalf("expected the left side, got %+v", ok)
	}
	for _, p := range []string{`{"x": 10, "y": 40}`, `{"x": 10, "y": 30}`} {
		_, body = srv.do(t, http.MethodPost, "/api/build/point", p)
		decode(t, body, &res)
		if !res.Added {
			t.Fatalf("expected %s to be added, got %+v", p, res)
		}
	}
	_, body = srv.do(t, http.MethodPost, "/api/build/delete", "")
	decode(t, body, &res)
	if res.Added {
		t.Fatalf("expected a delete to add nothing")
	}

	var settings race.Settings
	_, body = srv.do(t, http.MethodPut, "/api/game/settings", `{"turns": 9, "finish": "second-chance", "opponent": "easy"}`)
	decode(t, body, &settings)
	if settings.Turns != race.NineTurns || settings.Finish != race.FinishSecondChance || settings.History != race.HistoryMax {
		t.Fatalf("unexpected settings %+v", settings)
	}
}

func TestEditOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	if status, _ := srv.do(t, http.MethodPost, "/api/edit", ""); status != http.StatusConflict {
		t.Fatalf("expected editing an empty track to conflict, got %d", status)
	}
	srv.do(t, http.MethodPut, "/api/track", corridorJSON)

	if status, _ := srv.do(t, http.MethodPost, "/api/edit", ""); status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	var ok okResponse
	_, body := srv.do(t, http.MethodPost, "/api/edit/grab", `{"x": 10, "y": 30}`)
	decode(t, body, &ok)
	if !ok.OK {
		t.Fatalf("expected to grab (10,30)")
	}
	_, body = srv.do(t, http.MethodPost, "/api/edit/release", `{"x": 11, "y": 30}`)
	decode(t, body, &ok)
	if !ok.OK {
		t.Fatalf("expected the move to be accepted")
	}

	if status, _ := srv.do(t, http.MethodPost, "/api/track/switch", ""); status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	var snap snapshotView
	_, body = srv.do(t, http.MethodGet, "/api/game", "")
	decode(t, body, &snap)
	if snap.Left[0].X != 20 || snap.Left[0].Y != 10 {
		t.Fatalf("expected the start at the old finish, got %+v", snap.Left[0])
	}
}
