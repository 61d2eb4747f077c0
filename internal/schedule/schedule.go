// Package schedule imports tournament schedules and player rosters exported
// from a spreadsheet as CSV.
package schedule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pable/go-restream-stats/internal/model"
)

// startLayouts are the accepted formats for the start column. Times without
// a zone are read as UTC.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// header maps lower-cased column names to their index.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	cols, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	h := make(header, len(cols))
	for i, c := range cols {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h, nil
}

func (h header) has(col string) bool {
	_, ok := h[col]
	return ok
}

// get returns the trimmed cell for col, or "" when the column is absent or
// the record is short.
func (h header) get(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// ParseCSV reads scheduled matches. The header must contain id and round plus
// either runner1 and runner2 or team1 and team2. Optional columns: title,
// start, runnerN_twitch, runnerN_rank, runnerN_country, runnerN_racetime,
// runnerN_pronouns, teamN_players (names separated by ';'). Errors carry the
// 1-based line number.
func ParseCSV(r io.Reader) ([]model.ScheduledMatch, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"id", "round"} {
		if !h.has(col) {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	solo := h.has("runner1") && h.has("runner2")
	teams := h.has("team1") && h.has("team2")
	if !solo && !teams {
		return nil, errors.New(`missing participant columns: need "runner1" and "runner2" or "team1" and "team2"`)
	}

	var matches []model.ScheduledMatch
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}
		m, err := parseMatch(h, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func parseMatch(h header, record []string) (model.ScheduledMatch, error) {
	m := model.ScheduledMatch{
		ID:    h.get(record, "id"),
		Title: h.get(record, "title"),
		Round: h.get(record, "round"),
	}
	if m.ID == "" {
		return m, errors.New("empty id")
	}
	if m.Round == "" {
		return m, errors.New("empty round")
	}
	if s := h.get(record, "start"); s != "" {
		t, err := parseStart(s)
		if err != nil {
			return m, err
		}
		m.StartTime = &t
	}

	if t1, t2 := h.get(record, "team1"), h.get(record, "team2"); t1 != "" && t2 != "" {
		m.Team1 = &model.Team{Name: t1, Players: memberList(h.get(record, "team1_players"))}
		m.Team2 = &model.Team{Name: t2, Players: memberList(h.get(record, "team2_players"))}
		return m, nil
	}

	var err error
	if m.Runner1, err = parseRunner(h, record, "runner1"); err != nil {
		return m, err
	}
	if m.Runner2, err = parseRunner(h, record, "runner2"); err != nil {
		return m, err
	}
	return m, nil
}

func parseRunner(h header, record []string, prefix string) (model.Player, error) {
	p := model.Player{
		Name:       h.get(record, prefix),
		Twitch:     h.get(record, prefix+"_twitch"),
		Country:    h.get(record, prefix+"_country"),
		RacetimeID: h.get(record, prefix+"_racetime"),
		Pronouns:   h.get(record, prefix+"_pronouns"),
	}
	if p.Name == "" {
		return p, fmt.Errorf("empty %s", prefix)
	}
	rank, err := parseRank(h.get(record, prefix+"_rank"))
	if err != nil {
		return p, fmt.Errorf("%s_rank: %w", prefix, err)
	}
	p.Rank = rank
	return p, nil
}

// ParsePlayersCSV reads a roster with a required name column and optional
// twitch, rank, country, racetime and pronouns columns.
func ParsePlayersCSV(r io.Reader) ([]model.Player, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	if !h.has("name") {
		return nil, errors.New(`missing required column "name"`)
	}

	var players []model.Player
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}
		p := model.Player{
			Name:       h.get(record, "name"),
			Twitch:     h.get(record, "twitch"),
			Country:    h.get(record, "country"),
			RacetimeID: h.get(record, "racetime"),
			Pronouns:   h.get(record, "pronouns"),
		}
		if p.Name == "" {
			return nil, fmt.Errorf("line %d: empty name", line)
		}
		if p.Rank, err = parseRank(h.get(record, "rank")); err != nil {
			return nil, fmt.Errorf("line %d: rank: %w", line, err)
		}
		players = append(players, p)
	}
	return players, nil
}

// RunnerProfiles returns the solo runners of matches that carry profile
// details beyond a name, de-duplicated by name (last row wins).
func RunnerProfiles(matches []model.ScheduledMatch) []model.Player {
	byName := make(map[string]int)
	var out []model.Player
	for _, m := range matches {
		for _, p := range []model.Player{m.Runner1, m.Runner2} {
			if p.Name == "" || p == (model.Player{Name: p.Name}) {
				continue
			}
			if i, ok := byName[p.Name]; ok {
				out[i] = p
				continue
			}
			byName[p.Name] = len(out)
			out = append(out, p)
		}
	}
	return out
}

func parseStart(s string) (time.Time, error) {
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start time %q", s)
}

func parseRank(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid rank %q", s)
	}
	return n, nil
}

func memberList(s string) []model.Player {
	var out []model.Player
	for _, name := range strings.Split(s, ";") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, model.Player{Name: name})
		}
	}
	return out
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
