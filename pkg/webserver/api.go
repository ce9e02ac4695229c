package webserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"formulagame/pkg/checklines"
	"formulagame/pkg/game"
	"formulagame/pkg/geometry"
	"formulagame/pkg/helper"
	"formulagame/pkg/opponent"
	"formulagame/pkg/race"
	"formulagame/pkg/resources"
	"formulagame/pkg/standings"
	"formulagame/pkg/store"
	"formulagame/pkg/tracks"
)

// maxTrackSize bounds uploaded track documents.
const maxTrackSize = 1 << 20

// API exposes the game manager and the track store over HTTP.
type API struct {
	game      *game.Manager
	store     *store.Manager
	resources *resources.Manager
}

func NewAPI(g *game.Manager, s *store.Manager, res *resources.Manager) *API {
	return &API{
		game:      g,
		store:     s,
		resources: res,
	}
}

type pointRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type buildResponse struct {
	Added bool   `json:"added"`
	Hint  string `json:"hint,omitempty"`
	Ready bool   `json:"ready"`
}

type okResponse struct {
	OK   bool   `json:"ok"`
	Hint string `json:"hint,omitempty"`
}

type settingsRequest struct {
	race.Settings
	Opponent string `json:"opponent,omitempty"`
}

type renderResponse struct {
	File string `json:"file"`
}

// Register mounts the API under /api plus the plain text /standings.
func (a *API) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/game", a.snapshotHandler()).Methods(http.MethodGet)
	api.HandleFunc("/game/reset", a.resetGameHandler()).Methods(http.MethodPost)
	api.HandleFunc("/game/turn", a.turnHandler()).Methods(http.MethodPost)
	api.HandleFunc("/game/slot/{slot:[0-9]}", a.slotHandler()).Methods(http.MethodPost)
	api.HandleFunc("/game/candidates", a.candidatesHandler()).Methods(http.MethodGet)
	api.HandleFunc("/game/computer", a.computerHandler()).Methods(http.MethodPost)
	api.HandleFunc("/game/settings", a.getSettingsHandler()).Methods(http.MethodGet)
	api.HandleFunc("/game/settings", a.putSettingsHandler()).Methods(http.MethodPut)

	api.HandleFunc("/race/prepare", a.prepareHandler()).Methods(http.MethodPost)
	api.HandleFunc("/race/reset", a.resetRaceHandler()).Methods(http.MethodPost)
	api.HandleFunc("/race/end", a.endHandler()).Methods(http.MethodPost)

	api.HandleFunc("/build/point", a.buildPointHandler()).Methods(http.MethodPost)
	api.HandleFunc("/build/delete", a.deletePointHandler()).Methods(http.MethodPost)
	api.HandleFunc("/build/{side:left|right}", a.startBuildHandler()).Methods(http.MethodPost)
	api.HandleFunc("/edit", a.editHandler()).Methods(http.MethodPost)
	api.HandleFunc("/edit/grab", a.grabHandler()).Methods(http.MethodPost)
	api.HandleFunc("/edit/release", a.releaseHandler()).Methods(http.MethodPost)

	api.HandleFunc("/track", a.getTrackHandler()).Methods(http.MethodGet)
	api.HandleFunc("/track", a.putTrackHandler()).Methods(http.MethodPut)
	api.HandleFunc("/track/switch", a.switchHandler()).Methods(http.MethodPost)

	api.HandleFunc("/tracks", a.listTracksHandler()).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{name}", a.saveTrackHandler()).Methods(http.MethodPut)
	api.HandleFunc("/tracks/{name}", a.deleteTrackHandler()).Methods(http.MethodDelete)
	api.HandleFunc("/tracks/{name}/load", a.loadTrackHandler()).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{name}/thumbnail", a.thumbnailHandler()).Methods(http.MethodGet)

	api.HandleFunc("/results", a.resultsHandler()).Methods(http.MethodGet)
	api.HandleFunc("/render/{format:png|svg}", a.renderHandler()).Methods(http.MethodPost)

	r.HandleFunc("/standings", a.standingsHandler()).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %s\n", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracks.ErrMalformedTrack):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrTrackNotReady), errors.Is(err, game.ErrNoComputer):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("Error serving request: %s\n", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, format string, args ...interface{}) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf(format, args...)})
}

func readPoint(r *http.Request) (geometry.Point, error) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return geometry.Point{}, errors.Wrap(err, "decoding point")
	}
	return geometry.NewPoint(float64(req.X), float64(req.Y)), nil
}

func (a *API) snapshotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.game.Snapshot())
	}
}

func (a *API) resetGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.game.ResetGame()
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func (a *API) turnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readPoint(r)
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		writeJSON(w, http.StatusOK, a.game.ApplyTurn(p))
	}
}

func (a *API) slotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, _ := strconv.Atoi(mux.Vars(r)["slot"])
		writeJSON(w, http.StatusOK, a.game.ApplySlot(slot))
	}
}

func (a *API) candidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.game.CandidateOptions())
	}
}

func (a *API) computerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := a.game.ComputerMove()
		if err != nil {
			if errors.Is(err, game.ErrNoComputer) {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (a *API) getSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.game.Settings())
	}
}

func (a *API) putSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := settingsRequest{Settings: a.game.Settings()}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "decoding settings: %s", err)
			return
		}
		if _, err := race.ParseTurnsCount(int(req.Turns)); err != nil {
			badRequest(w, "%s", err)
			return
		}
		if _, err := race.ParseHistoryLength(req.History); err != nil {
			badRequest(w, "%s", err)
			return
		}
		switch req.Opponent {
		case "":
		case "player":
			a.game.SetOpponent(nil)
		default:
			policy, err := opponent.New(req.Opponent)
			if err != nil {
				badRequest(w, "%s", err)
				return
			}
			a.game.SetOpponent(policy)
		}
		a.game.SetSettings(req.Settings)
		writeJSON(w, http.StatusOK, a.game.Settings())
	}
}

func (a *API) prepareHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options, err := a.game.PrepareGame()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, options)
	}
}

func (a *API) resetRaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.game.ResetRace(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func (a *API) endHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.game.EndGame()
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func (a *API) startBuildHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		side := geometry.Left
		if mux.Vars(r)["side"] == "right" {
			side = geometry.Right
		}
		hint := a.game.StartBuild(side)
		writeJSON(w, http.StatusOK, okResponse{OK: hint == tracks.NoHint, Hint: hint.String()})
	}
}

func toBuildResponse(res tracks.BuildResult) buildResponse {
	return buildResponse{Added: res.Added, Hint: res.Hint.String(), Ready: res.Ready}
}

func (a *API) buildPointHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readPoint(r)
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		writeJSON(w, http.StatusOK, toBuildResponse(a.game.BuildPoint(p)))
	}
}

func (a *API) deletePointHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toBuildResponse(a.game.DeletePoint()))
	}
}

func (a *API) editHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.game.EditPoints(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: true, Hint: tracks.HintMovePoints.String()})
	}
}

func (a *API) grabHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readPoint(r)
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: a.game.GrabPoint(p)})
	}
}

func (a *API) releaseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readPoint(r)
		if err != nil {
			badRequest(w, "%s", err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: a.game.ReleasePoint(p)})
	}
}

func (a *API) getTrackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := a.game.SaveTrack()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func (a *API) putTrackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxTrackSize))
		if err != nil {
			badRequest(w, "reading track: %s", err)
			return
		}
		if err := a.game.LoadTrack(data); err != nil {
			writeError(w, err)
			return
		}
		a.game.SetTrackName("")
		writeJSON(w, http.StatusOK, a.game.Snapshot())
	}
}

func (a *API) switchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.game.SwitchStart()
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func (a *API) listTracksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := a.store.ListTracks()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// saveTrackHandler stores the track on the paper under the given name.
func (a *API) saveTrackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		data, err := a.game.SaveTrack()
		if err != nil {
			writeError(w, err)
			return
		}
		info, err := a.store.SaveTrack(name, data)
		if err != nil {
			writeError(w, err)
			return
		}
		a.game.TrackSaved(name)
		writeJSON(w, http.StatusOK, info)
	}
}

func (a *API) loadTrackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		data, err := a.store.LoadTrack(name)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := a.game.LoadTrack(data); err != nil {
			writeError(w, err)
			return
		}
		a.game.SetTrackName(name)
		writeJSON(w, http.StatusOK, a.game.Snapshot())
	}
}

func (a *API) deleteTrackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.store.DeleteTrack(mux.Vars(r)["name"]); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func (a *API) thumbnailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		data, err := a.store.LoadTrack(name)
		if err != nil {
			writeError(w, err)
			return
		}
		t, paper, err := tracks.Unmarshal(data)
		if err != nil {
			writeError(w, err)
			return
		}
		s := game.Snapshot{
			TrackName:  name,
			Paper:      paper,
			Left:       t.Left(),
			Right:      t.Right(),
			Ready:      t.Ready(),
			CheckLines: checklines.Analyze(t),
		}
		res, err := a.resources.BuildTrackThumbnail(helper.ToID(name), s)
		if err != nil {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, "/resources/"+res.FileName(), http.StatusSeeOther)
	}
}

func (a *API) resultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := a.store.ListResults(r.URL.Query().Get("track"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (a *API) renderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := a.game.Snapshot()
		id := "board"
		if s.TrackName != "" {
			id = helper.ToID(s.TrackName)
		}

		var (
			res resources.Resource
			err error
		)
		if mux.Vars(r)["format"] == "svg" {
			res, err = a.resources.BuildRaceSVG(id, s)
		} else {
			res, err = a.resources.BuildRacePNG(id, s)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, renderResponse{File: "/resources/" + res.FileName()})
	}
}

func (a *API) standingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, standings.Race(a.game.Snapshot()))
		if track := r.URL.Query().Get("track"); track != "" {
			records, err := a.store.ListResults(track, 0)
			if err != nil {
				log.Printf("Error listing results: %s\n", err)
				return
			}
			fmt.Fprint(w, "\n")
			fmt.Fprint(w, standings.Results(records))
		}
	}
}
