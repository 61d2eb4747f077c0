package faceoff

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pable/go-restream-stats/internal/layout"
	"github.com/pable/go-restream-stats/internal/model"
	"github.com/pable/go-restream-stats/internal/racetime"
	"github.com/pable/go-restream-stats/internal/storage"
)

func openMemDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// entrantJSON renders one racetime entrant; place 0 means unplaced.
func entrantJSON(id, status string, place int, finish string) string {
	placeJSON, finishJSON := "null", "null"
	if place > 0 {
		placeJSON = fmt.Sprint(place)
	}
	if finish != "" {
		finishJSON = fmt.Sprintf("%q", finish)
	}
	return fmt.Sprintf(`{"user":{"id":%q,"full_name":"%s#0001"},"status":{"value":%q},"finish_time":%s,"finished_at":null,"place":%s}`,
		id, strings.ToUpper(id), status, finishJSON, placeJSON)
}

func raceJSON(name, goal string, custom bool, ended string, entrants ...string) string {
	return fmt.Sprintf(`{"name":%q,"category":{"slug":"ootr"},"goal":{"name":%q,"custom":%t},"recorded":true,"ended_at":%q,"entrants":[%s]}`,
		name, goal, custom, ended, strings.Join(entrants, ","))
}

// racetimeServer serves two users, "aa" and "bb", who met in two races.
func racetimeServer(t *testing.T) *racetime.Client {
	t.Helper()
	shared1 := raceJSON("ootr/shared-1", "Triforce Blitz", false, "2024-03-01T21:00:00Z",
		entrantJSON("aa", "done", 1, "PT1H30M"), entrantJSON("bb", "done", 2, "PT1H35M"))
	shared2 := raceJSON("ootr/shared-2", "Triforce Blitz S3", true, "2024-03-08T21:00:00Z",
		entrantJSON("bb", "done", 1, "PT1H28M"), entrantJSON("aa", "dnf", 0, ""))
	soloA := raceJSON("ootr/solo-a", "Triforce Blitz", false, "2024-02-01T21:00:00Z",
		entrantJSON("aa", "done", 3, "PT1H25M"))
	pages := map[string]string{
		"/user/aa/alpha/races/data": fmt.Sprintf(`{"num_pages":1,"races":[%s,%s,%s]}`, shared2, shared1, soloA),
		"/user/bb/beta/races/data":  fmt.Sprintf(`{"num_pages":1,"races":[%s,%s]}`, shared2, shared1),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/aa/data":
			fmt.Fprint(w, `{"id":"aa","full_name":"AA#0001","url":"/user/aa/alpha"}`)
		case "/user/bb/data":
			fmt.Fprint(w, `{"id":"bb","full_name":"BB#0001","url":"/user/bb/beta"}`)
		default:
			body, ok := pages[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, body)
		}
	}))
	t.Cleanup(srv.Close)
	return racetime.NewClient(srv.URL, 60000, nil)
}

type staticGoals []string

func (g staticGoals) StandardGoals(context.Context) ([]string, error) { return g, nil }

type failingGoals struct{}

func (failingGoals) StandardGoals(context.Context) ([]string, error) {
	return nil, errors.New("midos down")
}

func TestSyncAll(t *testing.T) {
	db := openMemDB(t)
	svc := NewService(db, racetimeServer(t), nil, nil)

	res, err := svc.SyncAll(context.Background(), "aa", "bb")
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if res[0].Races != 3 || res[0].New != 3 {
		t.Errorf("aa: want 3 races all new, got %+v", res[0])
	}
	// bb's races were already stored through aa's history.
	if res[1].Races != 2 || res[1].New != 0 {
		t.Errorf("bb: want 2 races none new, got %+v", res[1])
	}

	again, err := svc.Sync(context.Background(), "aa")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if again.New != 0 || again.User.FullName != "AA#0001" {
		t.Errorf("re-sync: want 0 new, got %+v", again)
	}
}

func TestSync_UnknownUser(t *testing.T) {
	svc := NewService(openMemDB(t), racetimeServer(t), nil, nil)
	_, err := svc.Sync(context.Background(), "zz")
	if !errors.Is(err, racetime.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSync_NoSource(t *testing.T) {
	svc := NewService(openMemDB(t), nil, nil, nil)
	if _, err := svc.Sync(context.Background(), "aa"); err == nil {
		t.Fatal("want error without a race source")
	}
}

func TestFaceOff(t *testing.T) {
	svc := NewService(openMemDB(t), racetimeServer(t), staticGoals{"Triforce Blitz S3"}, nil)
	ctx := context.Background()

	all, err := svc.FaceOff(ctx, "aa", "bb", Options{Fetch: true})
	if err != nil {
		t.Fatalf("FaceOff: %v", err)
	}
	if all.Encounters != 2 || all.Player1Wins != 1 || all.Player2Wins != 1 {
		t.Errorf("all races: want 2 encounters split 1-1, got %+v", all)
	}
	// Shared races appear in both histories but count once.
	if all.Player1Stats.Joined != 3 || all.Player1Stats.Forfeits != 1 || all.Player1Stats.Third != 1 {
		t.Errorf("aa stats: %+v", all.Player1Stats)
	}
	if got := all.Player1Stats.BestTime.String(); got != "PT1H25M" {
		t.Errorf("aa best: want PT1H25M, got %s", got)
	}

	nonCustom, err := svc.FaceOff(ctx, "aa", "bb", Options{NonCustom: true})
	if err != nil {
		t.Fatalf("FaceOff non-custom: %v", err)
	}
	if nonCustom.Encounters != 1 || nonCustom.Player1Wins != 1 {
		t.Errorf("non-custom: want aa 1-0, got %+v", nonCustom)
	}

	standard, err := svc.FaceOff(ctx, "aa", "bb", Options{Standard: true})
	if err != nil {
		t.Fatalf("FaceOff standard: %v", err)
	}
	if standard.Encounters != 1 || standard.Player2Wins != 1 {
		t.Errorf("standard: want bb 1-0, got %+v", standard)
	}

	byGoal, _ := svc.FaceOff(ctx, "aa", "bb", Options{Goal: "triforce blitz", Category: "ootr", RecordedOnly: true})
	if byGoal.Encounters != 1 {
		t.Errorf("goal filter: want 1 encounter, got %d", byGoal.Encounters)
	}
}

func TestFilter_StandardErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewService(openMemDB(t), nil, nil, nil).Filter(ctx, Options{Standard: true}); err == nil {
		t.Error("want error without a goal source")
	}
	if _, err := NewService(openMemDB(t), nil, failingGoals{}, nil).Filter(ctx, Options{Standard: true}); err == nil {
		t.Error("want error when goals cannot be fetched")
	}
	f, err := NewService(openMemDB(t), nil, nil, nil).Filter(ctx, Options{})
	if err != nil || f != nil {
		t.Errorf("empty options: want nil filter, got %v (err %v)", f, err)
	}
}

func TestDisplayName(t *testing.T) {
	svc := NewService(openMemDB(t), racetimeServer(t), nil, nil)
	if got := svc.DisplayName("aa"); got != "aa" {
		t.Errorf("before sync: want id fallback, got %q", got)
	}
	if _, err := svc.Sync(context.Background(), "aa"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := svc.DisplayName("aa"); got != "AA#0001" {
		t.Errorf("want AA#0001, got %q", got)
	}
}

func TestLayout(t *testing.T) {
	svc := NewService(openMemDB(t), racetimeServer(t), nil, nil)
	ctx := context.Background()
	deck, _ := layout.Lookup("tfbs3")

	m := model.ScheduledMatch{
		ID: "m1", Round: "Bracket Final",
		Runner1: model.Player{Name: "Alpha", RacetimeID: "aa"},
		Runner2: model.Player{Name: "Beta", RacetimeID: "bb"},
	}
	doc, err := svc.Layout(ctx, m, deck, Options{Fetch: true})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(doc.Slides) != 3 || doc.Slides[1].Text["encounters"] != "2" {
		t.Errorf("want stats slide with 2 encounters, got %+v", doc.Slides)
	}

	m.Runner2.RacetimeID = ""
	doc, err = svc.Layout(ctx, m, deck, Options{})
	if err != nil {
		t.Fatalf("Layout without ID: %v", err)
	}
	if len(doc.Slides) != 2 {
		t.Errorf("want stats slide omitted, got %d slides", len(doc.Slides))
	}
}
