package racetime

import (
	"fmt"
	"time"

	"github.com/pable/go-restream-stats/internal/duration"
	"github.com/pable/go-restream-stats/internal/model"
)

// User holds the fields we need from /user/{id}/data.
type User struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Pronouns   string `json:"pronouns"`
	TwitchName string `json:"twitch_name"`
}

// racesPage is one page of {user.url}/races/data.
type racesPage struct {
	Count    int    `json:"count"`
	NumPages int    `json:"num_pages"`
	Races    []Race `json:"races"`
}

// Race is a race as returned with show_entrants=1.
type Race struct {
	Name     string `json:"name"`
	Category struct {
		Slug string `json:"slug"`
	} `json:"category"`
	Status struct {
		Value string `json:"value"`
	} `json:"status"`
	Goal struct {
		Name   string `json:"name"`
		Custom bool   `json:"custom"`
	} `json:"goal"`
	Recorded bool      `json:"recorded"`
	EndedAt  *string   `json:"ended_at"`
	Entrants []Entrant `json:"entrants"`
}

// Entrant is one participant of a race.
type Entrant struct {
	User struct {
		ID       string `json:"id"`
		FullName string `json:"full_name"`
	} `json:"user"`
	Status struct {
		Value string `json:"value"`
	} `json:"status"`
	FinishTime *string `json:"finish_time"`
	FinishedAt *string `json:"finished_at"`
	Place      *int    `json:"place"`
}

// Record converts the wire race into the aggregation model. Malformed
// finish times or timestamps are reported, never coerced.
func (r Race) Record() (model.RaceRecord, error) {
	rec := model.RaceRecord{
		Name:     r.Name,
		Category: r.Category.Slug,
		Goal:     model.Goal{Name: r.Goal.Name, Custom: r.Goal.Custom},
		Recorded: r.Recorded,
		Entrants: make([]model.EntrantRecord, 0, len(r.Entrants)),
	}
	ended, err := parseTime(r.EndedAt)
	if err != nil {
		return model.RaceRecord{}, fmt.Errorf("race %s: ended_at: %w", r.Name, err)
	}
	rec.EndedAt = ended

	for _, e := range r.Entrants {
		er := model.EntrantRecord{
			ContestantID:   e.User.ID,
			ContestantName: e.User.FullName,
			Status:         model.Status(e.Status.Value),
			Place:          e.Place,
		}
		if e.FinishTime != nil {
			d, err := duration.Parse(*e.FinishTime)
			if err != nil {
				return model.RaceRecord{}, fmt.Errorf("race %s: entrant %s: %w", r.Name, e.User.ID, err)
			}
			er.FinishTime = &d
		}
		if er.FinishedAt, err = parseTime(e.FinishedAt); err != nil {
			return model.RaceRecord{}, fmt.Errorf("race %s: entrant %s: finished_at: %w", r.Name, e.User.ID, err)
		}
		rec.Entrants = append(rec.Entrants, er)
	}
	return rec, nil
}

// Records converts a slice of wire races, stopping at the first error.
func Records(races []Race) ([]model.RaceRecord, error) {
	out := make([]model.RaceRecord, 0, len(races))
	for _, r := range races {
		rec, err := r.Record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Merge concatenates race lists, keeping only the first race seen for each
// name. Order is preserved. Races shared by both contestants appear in both
// of their histories, so merged input must be de-duplicated before it is
// aggregated.
func Merge(lists ...[]model.RaceRecord) []model.RaceRecord {
	seen := make(map[string]bool)
	var out []model.RaceRecord
	for _, list := range lists {
		for _, r := range list {
			if seen[r.Name] {
				continue
			}
			seen[r.Name] = true
			out = append(out, r)
		}
	}
	return out
}

func parseTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
