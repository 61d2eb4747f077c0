package model

import (
	"time"

	"github.com/pable/go-restream-stats/internal/duration"
)

// Status is an entrant's state within a race.
type Status string

const (
	StatusRequested  Status = "requested"
	StatusInvited    Status = "invited"
	StatusDeclined   Status = "declined"
	StatusReady      Status = "ready"
	StatusNotReady   Status = "not_ready"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusDNF        Status = "dnf"
	StatusDQ         Status = "dq"
)

// Forfeit reports whether the entrant did not finish or was disqualified.
func (s Status) Forfeit() bool {
	return s == StatusDNF || s == StatusDQ
}

// Complete reports whether the entrant's race is over: finished or forfeited.
func (s Status) Complete() bool {
	return s == StatusDone || s.Forfeit()
}

// ---- Race data handed over by the race source ----

// Goal describes what a race was run for.
type Goal struct {
	Name   string
	Custom bool
}

// RaceRecord is one completed or attempted race.
type RaceRecord struct {
	Name     string // unique, e.g. "ootr/clever-link-1234"
	Category string // category slug, e.g. "ootr"
	Goal     Goal
	Recorded bool
	EndedAt  *time.Time
	Entrants []EntrantRecord
}

// Entrant returns the first entrant whose ContestantID matches id.
func (r RaceRecord) Entrant(id string) (EntrantRecord, bool) {
	for _, e := range r.Entrants {
		if e.ContestantID == id {
			return e, true
		}
	}
	return EntrantRecord{}, false
}

// EntrantRecord is one contestant's participation in a race.
// FinishTime and Place are only set for finished entrants.
type EntrantRecord struct {
	ContestantID   string
	ContestantName string
	Status         Status
	FinishTime     *duration.Duration
	FinishedAt     *time.Time
	Place          *int
}

// ---- Derived statistics ----

// PlayerStats summarises one contestant's results across the included races.
type PlayerStats struct {
	Joined   int
	First    int
	Second   int
	Third    int
	Forfeits int

	// BestTime is nil until the contestant has finished at least one race.
	BestTime   *duration.Duration
	BestTimeAt *time.Time
}

// FaceOffStats compares two contestants across the races they both completed.
// Percentages are in the 0-100 range and are NaN when Encounters is zero.
type FaceOffStats struct {
	Encounters  int
	Player1Wins int
	Player2Wins int
	Draws       int

	Player1WinPercentage float64
	Player2WinPercentage float64
	DrawPercentage       float64

	Player1Stats PlayerStats
	Player2Stats PlayerStats
}

// HasEncounters reports whether the percentages carry data.
func (s FaceOffStats) HasEncounters() bool {
	return s.Encounters > 0
}
