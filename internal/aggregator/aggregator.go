package aggregator

import "github.com/pable/go-restream-stats/internal/model"

// Aggregate folds races into head-to-head statistics for contestants p1 and p2.
//
// Only races accepted by include are considered; a nil include accepts all.
// races must already be de-duplicated. Percentages are NaN when the two
// contestants never completed an included race together.
func Aggregate(races []model.RaceRecord, p1, p2 string, include RaceFilter) model.FaceOffStats {
	var acc accumulator
	for _, race := range races {
		if include != nil && !include(race) {
			continue
		}
		e1, ok1 := race.Entrant(p1)
		e2, ok2 := race.Entrant(p2)

		if ok1 && ok2 {
			acc.headToHead(e1, e2)
		}
		if ok1 {
			updatePlayer(&acc.p1, e1)
		}
		if ok2 {
			updatePlayer(&acc.p2, e2)
		}
	}
	return acc.stats()
}

type accumulator struct {
	encounters int
	p1Wins     int
	p2Wins     int
	draws      int
	p1, p2     model.PlayerStats
}

// headToHead counts one encounter when both entrants reached a complete status.
// An entrant with a place beats one without; equal places, including two
// unplaced entrants, are a draw.
func (a *accumulator) headToHead(e1, e2 model.EntrantRecord) {
	if !e1.Status.Complete() || !e2.Status.Complete() {
		return
	}
	a.encounters++
	switch {
	case samePlace(e1.Place, e2.Place):
		a.draws++
	case e1.Place != nil && e2.Place == nil:
		a.p1Wins++
	case e1.Place == nil && e2.Place != nil:
		a.p2Wins++
	case *e1.Place < *e2.Place:
		a.p1Wins++
	default:
		a.p2Wins++
	}
}

func samePlace(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func updatePlayer(s *model.PlayerStats, e model.EntrantRecord) {
	switch {
	case e.Status == model.StatusDone:
		s.Joined++
		if e.Place != nil {
			switch *e.Place {
			case 1:
				s.First++
			case 2:
				s.Second++
			case 3:
				s.Third++
			}
		}
		// Ties keep the earlier record.
		if e.FinishTime != nil && (s.BestTime == nil || e.FinishTime.Less(*s.BestTime)) {
			s.BestTime = e.FinishTime
			s.BestTimeAt = e.FinishedAt
		}
	case e.Status.Forfeit():
		s.Joined++
		s.Forfeits++
	}
}

func (a *accumulator) stats() model.FaceOffStats {
	return model.FaceOffStats{
		Encounters:           a.encounters,
		Player1Wins:          a.p1Wins,
		Player2Wins:          a.p2Wins,
		Draws:                a.draws,
		Player1WinPercentage: percent(a.p1Wins, a.encounters),
		Player2WinPercentage: percent(a.p2Wins, a.encounters),
		DrawPercentage:       percent(a.draws, a.encounters),
		Player1Stats:         a.p1,
		Player2Stats:         a.p2,
	}
}

// percent yields NaN when total is zero (0/0 in floating point).
func percent(n, total int) float64 {
	return float64(n) / float64(total) * 100
}
