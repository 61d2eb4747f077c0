// Package faceoff ties the racetime client, the race store and the standard
// goal cache together to answer "how have these two runners fared?".
package faceoff

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-restream-stats/internal/aggregator"
	"github.com/pable/go-restream-stats/internal/layout"
	"github.com/pable/go-restream-stats/internal/logging"
	"github.com/pable/go-restream-stats/internal/model"
	"github.com/pable/go-restream-stats/internal/racetime"
)

// RaceSource fetches race histories. *racetime.Client implements it.
type RaceSource interface {
	GetUser(ctx context.Context, id string) (*racetime.User, error)
	UserRaces(ctx context.Context, user *racetime.User) ([]racetime.Race, error)
}

// Store persists races. *storage.DB implements it.
type Store interface {
	RaceExists(name string) (bool, error)
	InsertRaces(races []model.RaceRecord) error
	RacesForContestants(ids ...string) ([]model.RaceRecord, error)
}

// GoalLister supplies the standard goal names. *midos.GoalCache implements it.
type GoalLister interface {
	StandardGoals(ctx context.Context) ([]string, error)
}

// Options selects which stored races count towards a face-off.
type Options struct {
	Goal         string // goal name, case-insensitive; empty for any
	Category     string // category slug; empty for any
	Standard     bool   // only custom goals that are standard tournament goals
	NonCustom    bool   // only built-in goals
	RecordedOnly bool
	Fetch        bool // refresh both runners from racetime.gg first
}

// SyncResult reports what Sync stored for one runner.
type SyncResult struct {
	User  *racetime.User
	Races int
	New   int
}

// Service computes face-offs from stored races.
type Service struct {
	db    Store
	races RaceSource
	goals GoalLister
	log   logrus.FieldLogger
}

// NewService builds a Service. races and goals may be nil when fetching
// or the standard-goal filter are not needed. A nil log discards output.
func NewService(store Store, races RaceSource, goals GoalLister, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{db: store, races: races, goals: goals, log: log}
}

// Sync fetches one runner's full race history and stores it.
func (s *Service) Sync(ctx context.Context, id string) (SyncResult, error) {
	res, err := s.SyncAll(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	return res[0], nil
}

// SyncAll fetches several runners concurrently and stores their races. The
// racetime client's limiter still bounds the request rate.
func (s *Service) SyncAll(ctx context.Context, ids ...string) ([]SyncResult, error) {
	if s.races == nil {
		return nil, fmt.Errorf("sync: no race source configured")
	}
	users := make([]*racetime.User, len(ids))
	fetched := make([][]racetime.Race, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			user, err := s.races.GetUser(gctx, id)
			if err != nil {
				return fmt.Errorf("lookup user %s: %w", id, err)
			}
			races, err := s.races.UserRaces(gctx, user)
			if err != nil {
				return fmt.Errorf("races for %s: %w", id, err)
			}
			users[i], fetched[i] = user, races
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Writes stay sequential; storage runs on a single connection.
	results := make([]SyncResult, len(ids))
	for i := range ids {
		res, err := s.save(users[i], fetched[i])
		if err != nil {
			return nil, fmt.Errorf("store races for %s: %w", ids[i], err)
		}
		results[i] = res
	}
	return results, nil
}

func (s *Service) save(user *racetime.User, wire []racetime.Race) (SyncResult, error) {
	records, err := racetime.Records(wire)
	if err != nil {
		return SyncResult{}, err
	}
	// New races shift the listing while we page, so a race can appear twice.
	records = racetime.Merge(records)
	res := SyncResult{User: user, Races: len(records)}
	for _, r := range records {
		exists, err := s.db.RaceExists(r.Name)
		if err != nil {
			return res, err
		}
		if !exists {
			res.New++
		}
	}
	if err := s.db.InsertRaces(records); err != nil {
		return res, err
	}
	s.log.WithFields(logrus.Fields{
		"user":  user.FullName,
		"races": res.Races,
		"new":   res.New,
	}).Info("synced race history")
	return res, nil
}

// Filter builds the race filter for opts.
func (s *Service) Filter(ctx context.Context, opts Options) (aggregator.RaceFilter, error) {
	var filters []aggregator.RaceFilter
	if opts.Goal != "" {
		filters = append(filters, aggregator.GoalFilter(opts.Goal))
	}
	if opts.Category != "" {
		filters = append(filters, aggregator.CategoryFilter(opts.Category))
	}
	if opts.NonCustom {
		filters = append(filters, aggregator.NonCustomGoal())
	}
	if opts.RecordedOnly {
		filters = append(filters, aggregator.RecordedOnly())
	}
	if opts.Standard {
		if s.goals == nil {
			return nil, fmt.Errorf("standard goal filter: no goal source configured")
		}
		goals, err := s.goals.StandardGoals(ctx)
		if err != nil {
			return nil, fmt.Errorf("standard goal filter: %w", err)
		}
		filters = append(filters, aggregator.StandardGoalFilter(goals))
	}
	if len(filters) == 0 {
		return nil, nil
	}
	return aggregator.AllOf(filters...), nil
}

// FaceOff aggregates the stored races of p1 and p2 (racetime.gg user IDs).
func (s *Service) FaceOff(ctx context.Context, p1, p2 string, opts Options) (model.FaceOffStats, error) {
	if opts.Fetch {
		if _, err := s.SyncAll(ctx, p1, p2); err != nil {
			return model.FaceOffStats{}, err
		}
	}
	filter, err := s.Filter(ctx, opts)
	if err != nil {
		return model.FaceOffStats{}, err
	}
	races, err := s.db.RacesForContestants(p1, p2)
	if err != nil {
		return model.FaceOffStats{}, fmt.Errorf("load races: %w", err)
	}
	s.log.WithFields(logrus.Fields{"p1": p1, "p2": p2, "races": len(races)}).Debug("aggregating face-off")
	return aggregator.Aggregate(races, p1, p2, filter), nil
}

// DisplayName returns the racetime.gg full name recorded for id in stored
// races, or id itself when the runner has no stored races.
func (s *Service) DisplayName(id string) string {
	races, err := s.db.RacesForContestants(id)
	if err != nil {
		return id
	}
	for _, r := range races {
		if e, ok := r.Entrant(id); ok && e.ContestantName != "" {
			return e.ContestantName
		}
	}
	return id
}

// Layout renders deck for m, computing face-off statistics when the deck
// shows them and both runners have a racetime.gg ID.
func (s *Service) Layout(ctx context.Context, m model.ScheduledMatch, deck layout.Deck, opts Options) (layout.Document, error) {
	var stats *model.FaceOffStats
	if deck.UsesStats() && !m.IsTeamMatch() {
		id1, id2 := m.Runner1.RacetimeID, m.Runner2.RacetimeID
		if id1 == "" || id2 == "" {
			s.log.WithField("match", m.ID).Warn("runner without racetime ID, omitting stats slide")
		} else {
			fo, err := s.FaceOff(ctx, id1, id2, opts)
			if err != nil {
				return layout.Document{}, err
			}
			stats = &fo
		}
	}
	return layout.Build(deck, m, stats)
}
