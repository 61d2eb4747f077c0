package model

import "time"

// Player is a runner as listed on the tournament schedule.
type Player struct {
	Name       string
	Twitch     string
	Rank       int
	Country    string // flag emoji followed by the country name, e.g. "🇫🇷 France"
	RacetimeID string
	Pronouns   string
}

// Team is a co-op pairing of players.
type Team struct {
	Name    string
	Players []Player
}

// ScheduledMatch is one restreamed match from the schedule sheet.
// Runner1/Runner2 are used by 1v1 decks, Team1/Team2 by team decks.
type ScheduledMatch struct {
	ID        string
	Title     string
	Round     string
	StartTime *time.Time
	Runner1   Player
	Runner2   Player
	Team1     *Team
	Team2     *Team
}

// IsTeamMatch reports whether the match is played between teams.
func (m ScheduledMatch) IsTeamMatch() bool {
	return m.Team1 != nil && m.Team2 != nil
}
