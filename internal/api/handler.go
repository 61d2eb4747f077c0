package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-restream-stats/internal/faceoff"
	"github.com/pable/go-restream-stats/internal/layout"
	"github.com/pable/go-restream-stats/internal/logging"
	"github.com/pable/go-restream-stats/internal/model"
)

// MatchStore reads the imported schedule. *storage.DB implements it.
type MatchStore interface {
	ListMatches() ([]model.ScheduledMatch, error)
	GetMatch(id string) (*model.ScheduledMatch, error)
}

// FaceOffer computes face-offs and layouts. *faceoff.Service implements it.
type FaceOffer interface {
	FaceOff(ctx context.Context, p1, p2 string, opts faceoff.Options) (model.FaceOffStats, error)
	Layout(ctx context.Context, m model.ScheduledMatch, deck layout.Deck, opts faceoff.Options) (layout.Document, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	stats   FaceOffer
	matches MatchStore
	log     logrus.FieldLogger
}

// NewHandler builds a Handler. A nil log discards output.
func NewHandler(stats FaceOffer, matches MatchStore, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logging.Discard()
	}
	return &Handler{stats: stats, matches: matches, log: log}
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeJSON encodes v before touching the response, so an encoding failure
// becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENCODE_FAILED", "could not encode response")
		return fmt.Errorf("encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	body, _ := json.Marshal(resp) // strings only, cannot fail
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// respond writes v as JSON and logs a failed encode or write.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if err := writeJSON(w, status, v); err != nil {
		h.log.WithError(err).WithField("path", r.URL.Path).Error("write response failed")
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// playerStatsJSON is PlayerStats with durations and dates in display form.
type playerStatsJSON struct {
	Joined     int     `json:"joined"`
	First      int     `json:"first"`
	Second     int     `json:"second"`
	Third      int     `json:"third"`
	Forfeits   int     `json:"forfeits"`
	BestTime   *string `json:"best_time"`
	BestClock  *string `json:"best_time_clock"`
	BestTimeAt *string `json:"best_time_at"`
}

// faceOffJSON mirrors FaceOffStats. Percentages are null when the runners
// never met, since JSON has no NaN.
type faceOffJSON struct {
	Player1              string          `json:"player1"`
	Player2              string          `json:"player2"`
	Encounters           int             `json:"encounters"`
	Player1Wins          int             `json:"player1_wins"`
	Player2Wins          int             `json:"player2_wins"`
	Draws                int             `json:"draws"`
	Player1WinPercentage *float64        `json:"player1_win_percentage"`
	Player2WinPercentage *float64        `json:"player2_win_percentage"`
	DrawPercentage       *float64        `json:"draw_percentage"`
	Player1Stats         playerStatsJSON `json:"player1_stats"`
	Player2Stats         playerStatsJSON `json:"player2_stats"`
}

func nullableFloat(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func toPlayerJSON(p model.PlayerStats) playerStatsJSON {
	out := playerStatsJSON{
		Joined: p.Joined, First: p.First, Second: p.Second, Third: p.Third, Forfeits: p.Forfeits,
	}
	if p.BestTime != nil {
		iso, clock := p.BestTime.String(), p.BestTime.Clock()
		out.BestTime, out.BestClock = &iso, &clock
	}
	if p.BestTimeAt != nil {
		at := p.BestTimeAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		out.BestTimeAt = &at
	}
	return out
}

func toFaceOffJSON(p1, p2 string, s model.FaceOffStats) faceOffJSON {
	return faceOffJSON{
		Player1:              p1,
		Player2:              p2,
		Encounters:           s.Encounters,
		Player1Wins:          s.Player1Wins,
		Player2Wins:          s.Player2Wins,
		Draws:                s.Draws,
		Player1WinPercentage: nullableFloat(s.Player1WinPercentage),
		Player2WinPercentage: nullableFloat(s.Player2WinPercentage),
		DrawPercentage:       nullableFloat(s.DrawPercentage),
		Player1Stats:         toPlayerJSON(s.Player1Stats),
		Player2Stats:         toPlayerJSON(s.Player2Stats),
	}
}

// optionsFromQuery reads the shared filter parameters.
func optionsFromQuery(r *http.Request) (faceoff.Options, error) {
	q := r.URL.Query()
	opts := faceoff.Options{
		Goal:     q.Get("goal"),
		Category: q.Get("category"),
	}
	for name, dst := range map[string]*bool{
		"standard":   &opts.Standard,
		"non_custom": &opts.NonCustom,
		"recorded":   &opts.RecordedOnly,
		"fetch":      &opts.Fetch,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("invalid boolean for " + name + ": " + v)
		}
		*dst = b
	}
	return opts, nil
}

// FaceOff returns GET /faceoff?p1=&p2=[&goal=&category=&standard=&fetch=].
func (h *Handler) FaceOff(w http.ResponseWriter, r *http.Request) {
	p1, p2 := r.URL.Query().Get("p1"), r.URL.Query().Get("p2")
	if p1 == "" || p2 == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "p1 and p2 are required")
		return
	}
	opts, err := optionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	stats, err := h.stats.FaceOff(r.Context(), p1, p2, opts)
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"p1": p1, "p2": p2}).Error("face-off failed")
		writeError(w, http.StatusBadGateway, "FACEOFF_FAILED", err.Error())
		return
	}
	h.respond(w, r, http.StatusOK, toFaceOffJSON(p1, p2, stats))
}

type matchJSON struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Round     string   `json:"round"`
	StartTime *string  `json:"start_time"`
	Runners   []string `json:"runners"`
	Team      bool     `json:"team"`
}

func toMatchJSON(m model.ScheduledMatch) matchJSON {
	out := matchJSON{ID: m.ID, Title: m.Title, Round: m.Round, Team: m.IsTeamMatch()}
	if m.StartTime != nil {
		st := m.StartTime.UTC().Format("2006-01-02T15:04:05Z07:00")
		out.StartTime = &st
	}
	if out.Team {
		out.Runners = []string{m.Team1.Name, m.Team2.Name}
	} else {
		out.Runners = []string{m.Runner1.Name, m.Runner2.Name}
	}
	return out
}

// Matches returns GET /matches.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matches.ListMatches()
	if err != nil {
		h.log.WithError(err).Error("list matches failed")
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "could not list matches")
		return
	}
	out := make([]matchJSON, 0, len(matches))
	for _, m := range matches {
		out = append(out, toMatchJSON(m))
	}
	h.respond(w, r, http.StatusOK, out)
}

// MatchLayout returns GET /matches/{id}/layout?deck=.
func (h *Handler) MatchLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deckName := r.URL.Query().Get("deck")
	if deckName == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "deck is required")
		return
	}
	deck, err := layout.Lookup(deckName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNKNOWN_DECK", err.Error())
		return
	}
	opts, err := optionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	m, err := h.matches.GetMatch(id)
	if err != nil {
		h.log.WithError(err).WithField("match", id).Error("get match failed")
		writeError(w, http.StatusInternalServerError, "DB_ERROR", "could not load match")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no match with id "+id)
		return
	}

	doc, err := h.stats.Layout(r.Context(), *m, deck, opts)
	if errors.Is(err, layout.ErrMatchMismatch) {
		writeError(w, http.StatusUnprocessableEntity, "DECK_MISMATCH", err.Error())
		return
	}
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"match": id, "deck": deckName}).Error("layout failed")
		writeError(w, http.StatusBadGateway, "LAYOUT_FAILED", err.Error())
		return
	}
	h.respond(w, r, http.StatusOK, doc)
}
