package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/go-restream-stats/internal/duration"
	"github.com/pable/go-restream-stats/internal/model"
)

// RaceSummary is one row of the races listing.
type RaceSummary struct {
	Name      string
	Category  string
	Goal      string
	Custom    bool
	Recorded  bool
	EndedAt   *time.Time
	Entrants  int
	Finishers int
}

// Overview holds database-wide counts for the summary command.
type Overview struct {
	Races       int
	Entrants    int
	Contestants int
	Players     int
	Matches     int
	Earliest    *time.Time
	Latest      *time.Time
}

// RaceExists returns true if a race with the given name is already stored.
func (db *DB) RaceExists(name string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM races WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertRaces stores races and their entrants in a single transaction.
// Existing races are replaced along with their entrant lists.
func (db *DB) InsertRaces(races []model.RaceRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	raceStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO races(name, category, goal_name, goal_custom, recorded, ended_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer raceStmt.Close()

	entStmt, err := tx.Prepare(`
		INSERT INTO entrants(race_name, position, contestant_id, contestant_name, status, finish_time, finished_at, place)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer entStmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range races {
		if _, err := tx.Exec("DELETE FROM entrants WHERE race_name = ?", r.Name); err != nil {
			return fmt.Errorf("clear entrants for %s: %w", r.Name, err)
		}
		if _, err := raceStmt.Exec(r.Name, r.Category, r.Goal.Name, boolInt(r.Goal.Custom),
			boolInt(r.Recorded), formatTime(r.EndedAt), now); err != nil {
			return fmt.Errorf("insert race %s: %w", r.Name, err)
		}
		for i, e := range r.Entrants {
			var finish, place any
			if e.FinishTime != nil {
				finish = e.FinishTime.String()
			}
			if e.Place != nil {
				place = *e.Place
			}
			if _, err := entStmt.Exec(r.Name, i, e.ContestantID, e.ContestantName, string(e.Status),
				finish, formatTime(e.FinishedAt), place); err != nil {
				return fmt.Errorf("insert entrant %s for %s: %w", e.ContestantID, r.Name, err)
			}
		}
	}
	return tx.Commit()
}

// ListRaces returns the most recent races first. limit <= 0 means no limit.
func (db *DB) ListRaces(limit int) ([]RaceSummary, error) {
	q := `
		SELECT r.name, r.category, r.goal_name, r.goal_custom, r.recorded, r.ended_at,
		       COUNT(e.position),
		       COALESCE(SUM(CASE WHEN e.status = 'done' THEN 1 ELSE 0 END), 0)
		FROM races r
		LEFT JOIN entrants e ON e.race_name = r.name
		GROUP BY r.name
		ORDER BY r.ended_at DESC, r.name`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RaceSummary
	for rows.Next() {
		var s RaceSummary
		var custom, recorded int
		var ended sql.NullString
		if err := rows.Scan(&s.Name, &s.Category, &s.Goal, &custom, &recorded, &ended,
			&s.Entrants, &s.Finishers); err != nil {
			return nil, err
		}
		s.Custom = custom == 1
		s.Recorded = recorded == 1
		if s.EndedAt, err = parseNullTime(ended); err != nil {
			return nil, fmt.Errorf("race %s: %w", s.Name, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RacesForContestants returns every stored race in which at least one of
// the given contestants took part, oldest first, each with its full entrant
// list in original order.
func (db *DB) RacesForContestants(ids ...string) ([]model.RaceRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.conn.Query(`
		SELECT name, category, goal_name, goal_custom, recorded, ended_at
		FROM races
		WHERE name IN (SELECT DISTINCT race_name FROM entrants WHERE contestant_id IN (`+placeholders(len(ids))+`))
		ORDER BY ended_at, name`, args...)
	if err != nil {
		return nil, err
	}

	var races []model.RaceRecord
	index := make(map[string]int)
	for rows.Next() {
		var r model.RaceRecord
		var custom, recorded int
		var ended sql.NullString
		if err := rows.Scan(&r.Name, &r.Category, &r.Goal.Name, &custom, &recorded, &ended); err != nil {
			rows.Close()
			return nil, err
		}
		r.Goal.Custom = custom == 1
		r.Recorded = recorded == 1
		if r.EndedAt, err = parseNullTime(ended); err != nil {
			rows.Close()
			return nil, fmt.Errorf("race %s: %w", r.Name, err)
		}
		index[r.Name] = len(races)
		races = append(races, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(races) == 0 {
		return nil, nil
	}

	// The pool holds a single connection, so entrants are read only after
	// the race cursor is closed.
	entRows, err := db.conn.Query(`
		SELECT e.race_name, e.contestant_id, e.contestant_name, e.status, e.finish_time, e.finished_at, e.place
		FROM entrants e
		WHERE e.race_name IN (SELECT DISTINCT race_name FROM entrants WHERE contestant_id IN (`+placeholders(len(ids))+`))
		ORDER BY e.race_name, e.position`, args...)
	if err != nil {
		return nil, err
	}
	defer entRows.Close()

	for entRows.Next() {
		var raceName, status string
		var e model.EntrantRecord
		var finish, finishedAt sql.NullString
		var place sql.NullInt64
		if err := entRows.Scan(&raceName, &e.ContestantID, &e.ContestantName, &status,
			&finish, &finishedAt, &place); err != nil {
			return nil, err
		}
		e.Status = model.Status(status)
		if finish.Valid {
			d, err := duration.Parse(finish.String)
			if err != nil {
				return nil, fmt.Errorf("race %s entrant %s: %w", raceName, e.ContestantID, err)
			}
			e.FinishTime = &d
		}
		if e.FinishedAt, err = parseNullTime(finishedAt); err != nil {
			return nil, fmt.Errorf("race %s entrant %s: %w", raceName, e.ContestantID, err)
		}
		if place.Valid {
			p := int(place.Int64)
			e.Place = &p
		}
		if i, ok := index[raceName]; ok {
			races[i].Entrants = append(races[i].Entrants, e)
		}
	}
	return races, entRows.Err()
}

// GetOverview returns database-wide counts.
func (db *DB) GetOverview() (Overview, error) {
	var ov Overview
	var earliest, latest sql.NullString
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM races),
			(SELECT COUNT(*) FROM entrants),
			(SELECT COUNT(DISTINCT contestant_id) FROM entrants),
			(SELECT COUNT(*) FROM players),
			(SELECT COUNT(*) FROM matches),
			(SELECT MIN(ended_at) FROM races),
			(SELECT MAX(ended_at) FROM races)`).
		Scan(&ov.Races, &ov.Entrants, &ov.Contestants, &ov.Players, &ov.Matches, &earliest, &latest)
	if err != nil {
		return ov, err
	}
	if ov.Earliest, err = parseNullTime(earliest); err != nil {
		return ov, err
	}
	if ov.Latest, err = parseNullTime(latest); err != nil {
		return ov, err
	}
	return ov, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", s.String, err)
	}
	return &t, nil
}
