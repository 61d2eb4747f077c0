package midos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-restream-stats/internal/logging"
)

// RefreshInterval is how long fetched goal names are served before the cache
// asks the source again.
const RefreshInterval = 10 * time.Minute

// ErrNoGoalData is returned when the goal list could not be fetched and no
// earlier copy is available.
var ErrNoGoalData = errors.New("no standard goal data available")

// GoalSource supplies the raw list of managed goal names. *Client implements it.
type GoalSource interface {
	GoalNames(ctx context.Context) ([]string, error)
}

// GoalCache answers whether a custom goal is a standard tournament goal.
// It is safe for concurrent use.
type GoalCache struct {
	src GoalSource
	log logrus.FieldLogger
	now func() time.Time

	mu        sync.Mutex
	goals     []string
	lastFetch time.Time
}

// NewGoalCache wraps src. A nil log discards output.
func NewGoalCache(src GoalSource, log logrus.FieldLogger) *GoalCache {
	if log == nil {
		log = logging.Discard()
	}
	return &GoalCache{src: src, log: log, now: time.Now}
}

// IsStandardGoal reports whether goal is one of the current standard goals.
func (c *GoalCache) IsStandardGoal(ctx context.Context, goal string) (bool, error) {
	goals, err := c.StandardGoals(ctx)
	if err != nil {
		return false, err
	}
	for _, g := range goals {
		if g == goal {
			return true, nil
		}
	}
	return false, nil
}

// StandardGoals returns the current standard goal names, refreshing them when
// the cache is empty or older than RefreshInterval. A failed refresh serves
// the previous list when there is one.
func (c *GoalCache) StandardGoals(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.goals) > 0 && c.now().Sub(c.lastFetch) <= RefreshInterval {
		return c.snapshot(), nil
	}

	names, err := c.src.GoalNames(ctx)
	if err != nil {
		if len(c.goals) > 0 {
			c.log.WithError(err).WithField("last_fetch", c.lastFetch.Format(time.RFC3339)).
				Warn("refreshing standard goals failed, serving stale data")
			return c.snapshot(), nil
		}
		c.log.WithError(err).Error("fetching standard goals failed and no stale data is available")
		return nil, fmt.Errorf("fetch standard goals: %w: %v", ErrNoGoalData, err)
	}

	c.goals = filterStandard(names)
	c.lastFetch = c.now()
	c.log.WithField("goals", strings.Join(c.goals, ", ")).Info("fetched standard goals")
	return c.snapshot(), nil
}

func (c *GoalCache) snapshot() []string {
	out := make([]string, len(c.goals))
	copy(out, c.goals)
	return out
}

// filterStandard drops goals that belong to multiworld tournaments.
func filterStandard(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), "multiworld") {
			continue
		}
		out = append(out, n)
	}
	return out
}
