package aggregator

import (
	"strings"

	"github.com/pable/go-restream-stats/internal/model"
)

// RaceFilter selects which races count toward face-off statistics.
type RaceFilter func(model.RaceRecord) bool

// AllOf accepts a race only when every non-nil filter accepts it.
func AllOf(filters ...RaceFilter) RaceFilter {
	return func(r model.RaceRecord) bool {
		for _, f := range filters {
			if f != nil && !f(r) {
				return false
			}
		}
		return true
	}
}

// GoalFilter accepts races whose goal name matches name, ignoring case.
func GoalFilter(name string) RaceFilter {
	return func(r model.RaceRecord) bool {
		return strings.EqualFold(r.Goal.Name, name)
	}
}

// CategoryFilter accepts races in the given category slug.
func CategoryFilter(slug string) RaceFilter {
	return func(r model.RaceRecord) bool {
		return r.Category == slug
	}
}

// NonCustomGoal accepts races run for one of the category's built-in goals.
func NonCustomGoal() RaceFilter {
	return func(r model.RaceRecord) bool {
		return !r.Goal.Custom
	}
}

// RecordedOnly accepts races that were recorded on the race site.
func RecordedOnly() RaceFilter {
	return func(r model.RaceRecord) bool {
		return r.Recorded
	}
}

// StandardGoalFilter accepts races run for a custom goal listed in goals.
// Built-in goals are rejected.
func StandardGoalFilter(goals []string) RaceFilter {
	set := make(map[string]struct{}, len(goals))
	for _, g := range goals {
		set[g] = struct{}{}
	}
	return func(r model.RaceRecord) bool {
		if !r.Goal.Custom {
			return false
		}
		_, ok := set[r.Goal.Name]
		return ok
	}
}
