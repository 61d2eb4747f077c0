package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/pable/go-restream-stats/internal/duration"
	"github.com/pable/go-restream-stats/internal/faceoff"
	"github.com/pable/go-restream-stats/internal/layout"
	"github.com/pable/go-restream-stats/internal/model"
)

type fakeStats struct {
	stats    model.FaceOffStats
	err      error
	gotOpts  faceoff.Options
	gotPair  [2]string
	layoutOf  string
	layoutErr error
}

func (f *fakeStats) FaceOff(_ context.Context, p1, p2 string, opts faceoff.Options) (model.FaceOffStats, error) {
	f.gotPair = [2]string{p1, p2}
	f.gotOpts = opts
	return f.stats, f.err
}

func (f *fakeStats) Layout(_ context.Context, m model.ScheduledMatch, deck layout.Deck, _ faceoff.Options) (layout.Document, error) {
	f.layoutOf = m.ID
	if f.layoutErr != nil {
		return layout.Document{}, f.layoutErr
	}
	return layout.Build(deck, m, nil)
}

type fakeMatches struct {
	matches []model.ScheduledMatch
}

func (f *fakeMatches) ListMatches() ([]model.ScheduledMatch, error) { return f.matches, nil }

func (f *fakeMatches) GetMatch(id string) (*model.ScheduledMatch, error) {
	for i := range f.matches {
		if f.matches[i].ID == id {
			return &f.matches[i], nil
		}
	}
	return nil, nil
}

func newTestRouter(stats *fakeStats, matches *fakeMatches) http.Handler {
	return NewRouter(NewHandler(stats, matches, nil), []string{"*"})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(&fakeStats{}, &fakeMatches{}), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestFaceOff(t *testing.T) {
	best := duration.MustParse("PT1H30M")
	at := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	stats := &fakeStats{stats: model.FaceOffStats{
		Encounters: 4, Player1Wins: 2, Player2Wins: 1, Draws: 1,
		Player1WinPercentage: 50, Player2WinPercentage: 25, DrawPercentage: 25,
		Player1Stats: model.PlayerStats{Joined: 5, First: 2, BestTime: &best, BestTimeAt: &at},
	}}
	rec := get(t, newTestRouter(stats, &fakeMatches{}), "/faceoff?p1=aa&p2=bb&goal=Triforce+Blitz&standard=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if stats.gotPair != [2]string{"aa", "bb"} {
		t.Errorf("pair = %v", stats.gotPair)
	}
	if stats.gotOpts.Goal != "Triforce Blitz" || !stats.gotOpts.Standard || stats.gotOpts.Fetch {
		t.Errorf("opts = %+v", stats.gotOpts)
	}

	var body faceOffJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Encounters != 4 || body.Player1Wins != 2 {
		t.Errorf("body = %+v", body)
	}
	if body.Player1WinPercentage == nil || *body.Player1WinPercentage != 50 {
		t.Errorf("player1 pct = %v", body.Player1WinPercentage)
	}
	if body.Player1Stats.BestClock == nil || *body.Player1Stats.BestClock != "01:30:00.0" {
		t.Errorf("best clock = %v", body.Player1Stats.BestClock)
	}
	if body.Player1Stats.BestTimeAt == nil || *body.Player1Stats.BestTimeAt != "2024-03-01T20:00:00Z" {
		t.Errorf("best at = %v", body.Player1Stats.BestTimeAt)
	}
	if body.Player2Stats.BestTime != nil {
		t.Errorf("player2 best = %v, want null", *body.Player2Stats.BestTime)
	}
}

func TestFaceOffNoEncountersRendersNull(t *testing.T) {
	stats := &fakeStats{stats: model.FaceOffStats{
		Player1WinPercentage: math.NaN(), Player2WinPercentage: math.NaN(), DrawPercentage: math.NaN(),
	}}
	rec := get(t, newTestRouter(stats, &fakeMatches{}), "/faceoff?p1=aa&p2=bb")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"draw_percentage":null`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestFaceOffErrors(t *testing.T) {
	cases := []struct {
		name   string
		target string
		err    error
		status int
		code   string
	}{
		{"missing p2", "/faceoff?p1=aa", nil, http.StatusBadRequest, "MISSING_PARAM"},
		{"bad bool", "/faceoff?p1=aa&p2=bb&fetch=maybe", nil, http.StatusBadRequest, "INVALID_PARAM"},
		{"service error", "/faceoff?p1=aa&p2=bb", errors.New("boom"), http.StatusBadGateway, "FACEOFF_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, newTestRouter(&fakeStats{err: tc.err}, &fakeMatches{}), tc.target)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if got := errorCode(t, rec); got != tc.code {
				t.Errorf("code = %q, want %q", got, tc.code)
			}
		})
	}
}

func testMatches() *fakeMatches {
	start := time.Date(2024, 5, 4, 18, 0, 0, 0, time.UTC)
	return &fakeMatches{matches: []model.ScheduledMatch{{
		ID:        "m1",
		Title:     "Alice vs Bob",
		Round:     "Brackets Semi-Final",
		StartTime: &start,
		Runner1:   model.Player{Name: "Alice", Country: "🇫🇷 France"},
		Runner2:   model.Player{Name: "Bob", Country: "🇩🇪 Germany"},
	}}}
}

func TestMatches(t *testing.T) {
	rec := get(t, newTestRouter(&fakeStats{}, testMatches()), "/matches")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body []matchJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body) != 1 || body[0].ID != "m1" || body[0].Team {
		t.Fatalf("body = %+v", body)
	}
	if body[0].StartTime == nil || *body[0].StartTime != "2024-05-04T18:00:00Z" {
		t.Errorf("start = %v", body[0].StartTime)
	}
	if strings.Join(body[0].Runners, ",") != "Alice,Bob" {
		t.Errorf("runners = %v", body[0].Runners)
	}
}

func TestMatchesEmptyIsArray(t *testing.T) {
	rec := get(t, newTestRouter(&fakeStats{}, &fakeMatches{}), "/matches")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", rec.Body.String())
	}
}

func TestMatchLayout(t *testing.T) {
	stats := &fakeStats{}
	rec := get(t, newTestRouter(stats, testMatches()), "/matches/m1/layout?deck=ccs8")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if stats.layoutOf != "m1" {
		t.Errorf("layout built for %q", stats.layoutOf)
	}
	var doc layout.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Deck != "ccs8" || doc.Match != "m1" || len(doc.Slides) == 0 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestMatchLayoutErrors(t *testing.T) {
	cases := []struct {
		name      string
		target    string
		layoutErr error
		status    int
		code      string
	}{
		{"missing deck", "/matches/m1/layout", nil, http.StatusBadRequest, "MISSING_PARAM"},
		{"unknown deck", "/matches/m1/layout?deck=nope", nil, http.StatusBadRequest, "UNKNOWN_DECK"},
		{"unknown match", "/matches/zz/layout?deck=ccs8", nil, http.StatusNotFound, "NOT_FOUND"},
		{"team deck on solo match", "/matches/m1/layout?deck=coops3", nil, http.StatusUnprocessableEntity, "DECK_MISMATCH"},
		{"upstream failure", "/matches/m1/layout?deck=ccs8&fetch=true", errors.New("racetime.gg: connection refused"), http.StatusBadGateway, "LAYOUT_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, newTestRouter(&fakeStats{layoutErr: tc.layoutErr}, testMatches()), tc.target)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.status, rec.Body.String())
			}
			if got := errorCode(t, rec); got != tc.code {
				t.Errorf("code = %q, want %q", got, tc.code)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := NewRouter(NewHandler(&fakeStats{}, &fakeMatches{}, nil), []string{"https://overlay.example"})
	req := httptest.NewRequest(http.MethodOptions, "/faceoff", nil)
	req.Header.Set("Origin", "https://overlay.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://overlay.example" {
		t.Errorf("allow origin = %q", got)
	}
}

type goalsDown struct{}

func (goalsDown) StandardGoals(context.Context) ([]string, error) {
	return nil, errors.New("midos.house unreachable")
}

type emptyStore struct{}

func (emptyStore) RaceExists(string) (bool, error)                           { return false, nil }
func (emptyStore) InsertRaces([]model.RaceRecord) error                      { return nil }
func (emptyStore) RacesForContestants(...string) ([]model.RaceRecord, error) { return nil, nil }

func TestMatchLayout_GoalSourceDownIsBadGateway(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	svc := faceoff.NewService(emptyStore{}, nil, goalsDown{}, log)
	matches := testMatches()
	matches.matches[0].Runner1.RacetimeID = "aa"
	matches.matches[0].Runner2.RacetimeID = "bb"
	h := NewRouter(NewHandler(svc, matches, log), nil)

	rec := get(t, h, "/matches/m1/layout?deck=ccs8&standard=true")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 (body %s)", rec.Code, rec.Body.String())
	}
	if got := errorCode(t, rec); got != "LAYOUT_FAILED" {
		t.Errorf("code = %q, want LAYOUT_FAILED", got)
	}
	logged := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "layout failed" {
			logged = true
		}
	}
	if !logged {
		t.Error("want the upstream failure logged at error level")
	}
}

func TestRespond_EncodeFailure(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	h := NewHandler(&fakeStats{}, &fakeMatches{}, log)
	rec := httptest.NewRecorder()
	h.respond(rec, httptest.NewRequest(http.MethodGet, "/faceoff", nil), http.StatusOK, math.NaN())

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := errorCode(t, rec); got != "ENCODE_FAILED" {
		t.Errorf("code = %q, want ENCODE_FAILED", got)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.ErrorLevel {
		t.Errorf("want an error log entry, got %v", e)
	}
}
