package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/go-restream-stats/internal/model"
)

// UpsertPlayers inserts or replaces player profiles keyed by name.
func (db *DB) UpsertPlayers(players []model.Player) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO players(name, twitch, rank, country, racetime_id, pronouns)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range players {
		if p.Name == "" {
			continue
		}
		if _, err := stmt.Exec(p.Name, p.Twitch, p.Rank, p.Country, p.RacetimeID, p.Pronouns); err != nil {
			return fmt.Errorf("upsert player %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// GetPlayerByName returns the stored profile, or nil if none exists.
func (db *DB) GetPlayerByName(name string) (*model.Player, error) {
	var p model.Player
	err := db.conn.QueryRow(`
		SELECT name, twitch, rank, country, racetime_id, pronouns
		FROM players WHERE name = ?`, name).
		Scan(&p.Name, &p.Twitch, &p.Rank, &p.Country, &p.RacetimeID, &p.Pronouns)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertMatches stores scheduled matches, replacing any with the same ID.
// Runners and team members are referenced by name; names without a stored
// profile get an empty one so later lookups succeed.
func (db *DB) InsertMatches(matches []model.ScheduledMatch) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	matchStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches(id, title, round, start_time, runner1, runner2, team1, team2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer matchStmt.Close()

	memberStmt, err := tx.Prepare(`
		INSERT INTO team_members(match_id, side, position, player_name) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer memberStmt.Close()

	playerStmt, err := tx.Prepare(`INSERT OR IGNORE INTO players(name) VALUES (?)`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()

	ensurePlayer := func(name string) error {
		if name == "" {
			return nil
		}
		_, err := playerStmt.Exec(name)
		return err
	}

	for _, m := range matches {
		if _, err := tx.Exec("DELETE FROM team_members WHERE match_id = ?", m.ID); err != nil {
			return fmt.Errorf("clear teams for %s: %w", m.ID, err)
		}
		var team1, team2 string
		if m.Team1 != nil {
			team1 = m.Team1.Name
		}
		if m.Team2 != nil {
			team2 = m.Team2.Name
		}
		if _, err := matchStmt.Exec(m.ID, m.Title, m.Round, formatTime(m.StartTime),
			m.Runner1.Name, m.Runner2.Name, team1, team2); err != nil {
			return fmt.Errorf("insert match %s: %w", m.ID, err)
		}
		for _, name := range []string{m.Runner1.Name, m.Runner2.Name} {
			if err := ensurePlayer(name); err != nil {
				return fmt.Errorf("insert player %s: %w", name, err)
			}
		}
		for side, team := range []*model.Team{m.Team1, m.Team2} {
			if team == nil {
				continue
			}
			for pos, p := range team.Players {
				if _, err := memberStmt.Exec(m.ID, side+1, pos, p.Name); err != nil {
					return fmt.Errorf("insert team member %s for %s: %w", p.Name, m.ID, err)
				}
				if err := ensurePlayer(p.Name); err != nil {
					return fmt.Errorf("insert player %s: %w", p.Name, err)
				}
			}
		}
	}
	return tx.Commit()
}

// matchRow is a matches row before player profiles are resolved.
type matchRow struct {
	id, title, round string
	start            sql.NullString
	runner1, runner2 string
	team1, team2     string
}

const matchColumns = `id, title, round, start_time, runner1, runner2, team1, team2`

func scanMatchRow(s interface{ Scan(...any) error }) (matchRow, error) {
	var r matchRow
	err := s.Scan(&r.id, &r.title, &r.round, &r.start, &r.runner1, &r.runner2, &r.team1, &r.team2)
	return r, err
}

// ListMatches returns all scheduled matches ordered by start time, with
// player profiles resolved.
func (db *DB) ListMatches() ([]model.ScheduledMatch, error) {
	rows, err := db.conn.Query(`SELECT ` + matchColumns + ` FROM matches ORDER BY start_time, id`)
	if err != nil {
		return nil, err
	}
	var raw []matchRow
	for rows.Next() {
		r, err := scanMatchRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		raw = append(raw, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.ScheduledMatch, 0, len(raw))
	for _, r := range raw {
		m, err := db.resolveMatch(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// GetMatch returns the scheduled match with the given ID, or nil if none exists.
func (db *DB) GetMatch(id string) (*model.ScheduledMatch, error) {
	r, err := scanMatchRow(db.conn.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return db.resolveMatch(r)
}

func (db *DB) resolveMatch(r matchRow) (*model.ScheduledMatch, error) {
	m := &model.ScheduledMatch{ID: r.id, Title: r.title, Round: r.round}
	start, err := parseNullTime(r.start)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", r.id, err)
	}
	m.StartTime = start

	if m.Runner1, err = db.playerOrName(r.runner1); err != nil {
		return nil, err
	}
	if m.Runner2, err = db.playerOrName(r.runner2); err != nil {
		return nil, err
	}
	if r.team1 != "" || r.team2 != "" {
		if m.Team1, err = db.loadTeam(r.id, 1, r.team1); err != nil {
			return nil, err
		}
		if m.Team2, err = db.loadTeam(r.id, 2, r.team2); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (db *DB) playerOrName(name string) (model.Player, error) {
	if name == "" {
		return model.Player{}, nil
	}
	p, err := db.GetPlayerByName(name)
	if err != nil {
		return model.Player{}, fmt.Errorf("get player %s: %w", name, err)
	}
	if p == nil {
		return model.Player{Name: name}, nil
	}
	return *p, nil
}

func (db *DB) loadTeam(matchID string, side int, name string) (*model.Team, error) {
	rows, err := db.conn.Query(`
		SELECT player_name FROM team_members
		WHERE match_id = ? AND side = ? ORDER BY position`, matchID, side)
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	team := &model.Team{Name: name}
	for _, n := range names {
		p, err := db.playerOrName(n)
		if err != nil {
			return nil, err
		}
		team.Players = append(team.Players, p)
	}
	return team, nil
}

// UpcomingMatches returns matches starting at or after from.
func (db *DB) UpcomingMatches(from time.Time) ([]model.ScheduledMatch, error) {
	all, err := db.ListMatches()
	if err != nil {
		return nil, err
	}
	var out []model.ScheduledMatch
	for _, m := range all {
		if m.StartTime != nil && !m.StartTime.Before(from) {
			out = append(out, m)
		}
	}
	return out, nil
}
