// Package report renders face-off statistics, stored races and schedules as
// terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-restream-stats/internal/layout"
	"github.com/pable/go-restream-stats/internal/model"
	"github.com/pable/go-restream-stats/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintFaceOff prints the head-to-head record followed by each runner's
// overall results.
func PrintFaceOff(w io.Writer, name1, name2 string, s model.FaceOffStats) {
	fmt.Fprintf(w, "\n%s vs %s  |  Encounters: %d\n\n", name1, name2, s.Encounters)

	h2h := newTable(w)
	h2h.Header("RESULT", "COUNT", "PCT")
	h2h.Append(name1+" wins", strconv.Itoa(s.Player1Wins), layout.FormatPercent(s.Player1WinPercentage))
	h2h.Append(name2+" wins", strconv.Itoa(s.Player2Wins), layout.FormatPercent(s.Player2WinPercentage))
	h2h.Append("Draws", strconv.Itoa(s.Draws), layout.FormatPercent(s.DrawPercentage))
	h2h.Render()
	if !s.HasEncounters() {
		fmt.Fprintln(w, "(no shared completed races)")
	}
	fmt.Fprintln(w)

	players := newTable(w)
	players.Header("RUNNER", "RACES", "1ST", "2ND", "3RD", "FF", "BEST", "BEST ON")
	for _, row := range []struct {
		name string
		p    model.PlayerStats
	}{{name1, s.Player1Stats}, {name2, s.Player2Stats}} {
		best := "—"
		if row.p.BestTime != nil {
			best = layout.FormatDuration(row.p.BestTime)
		}
		players.Append(
			row.name,
			strconv.Itoa(row.p.Joined),
			strconv.Itoa(row.p.First),
			strconv.Itoa(row.p.Second),
			strconv.Itoa(row.p.Third),
			strconv.Itoa(row.p.Forfeits),
			best,
			layout.FormatDate(row.p.BestTimeAt),
		)
	}
	players.Render()
}

// PrintRaces prints stored race summaries.
func PrintRaces(w io.Writer, races []storage.RaceSummary) {
	table := newTable(w)
	table.Header("RACE", "CATEGORY", "GOAL", "ENDED", "ENTRANTS", "FINISHED")
	for _, r := range races {
		goal := r.Goal
		if r.Custom {
			goal += " *"
		}
		ended := "—"
		if r.EndedAt != nil {
			ended = r.EndedAt.UTC().Format("2006-01-02")
		}
		table.Append(r.Name, r.Category, goal, ended, strconv.Itoa(r.Entrants), strconv.Itoa(r.Finishers))
	}
	table.Render()
	fmt.Fprintln(w, "* custom goal")
}

// PrintMatches prints the imported schedule.
func PrintMatches(w io.Writer, matches []model.ScheduledMatch) {
	table := newTable(w)
	table.Header("ID", "ROUND", "START (UTC)", "SIDE 1", "SIDE 2")
	for _, m := range matches {
		start := "TBD"
		if m.StartTime != nil {
			start = m.StartTime.UTC().Format("2006-01-02 15:04")
		}
		side1, side2 := m.Runner1.Name, m.Runner2.Name
		if m.IsTeamMatch() {
			side1, side2 = m.Team1.Name, m.Team2.Name
		}
		table.Append(m.ID, m.Round, start, side1, side2)
	}
	table.Render()
}

// PrintQueryResult prints the columns and rows of a raw query.
func PrintQueryResult(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)
	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)
	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

// PrintOverview prints database-wide counts.
func PrintOverview(w io.Writer, ov storage.Overview) {
	fmt.Fprintf(w, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(w, "  Races stored  : %d\n", ov.Races)
	if ov.Earliest != nil && ov.Latest != nil {
		fmt.Fprintf(w, "  Date range    : %s → %s\n", ov.Earliest.UTC().Format("2006-01-02"), ov.Latest.UTC().Format("2006-01-02"))
	}
	fmt.Fprintf(w, "  Entrant rows  : %d\n", ov.Entrants)
	fmt.Fprintf(w, "  Contestants   : %d\n", ov.Contestants)
	fmt.Fprintf(w, "  Players       : %d\n", ov.Players)
	fmt.Fprintf(w, "  Matches       : %d\n\n", ov.Matches)
}
