package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
)

const dateLayout = "2006-01-02"

type (
	// MergeBroadcaster announces merge deactivations to the host topics.
	MergeBroadcaster interface {
		MergeDeactivated(m merge.ClassMerge)
	}

	// Scheduler runs the periodic housekeeping duties: purging stale
	// acknowledged pickups and clearing all class merges once per calendar
	// day at a fixed wall-clock time. Both duties are checked on a tight
	// poll period; "already ran" tracking keeps them idempotent across
	// ticks, so neither an overlap of the target minute nor a missed tick
	// (process pause) can double-fire or drop a run.
	Scheduler struct {
		pickups     *pickup.Service
		merges      *merge.Service
		broadcaster MergeBroadcaster
		logger      core.Logger

		poll        time.Duration
		purgePeriod time.Duration
		pickupTTL   time.Duration
		clearHour   int
		clearMinute int

		lastPurge    time.Time
		lastClearDay string // date the merge clear last fired, "2006-01-02"

		now func() time.Time // stubbed in tests
	}
)

func New(
	pickups *pickup.Service,
	merges *merge.Service,
	broadcaster MergeBroadcaster,
	logger core.Logger,
	conf core.SchedulerConfig,
) (*Scheduler, error) {
	hour, minute, err := parseClockTime(conf.MergeClearAt)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing merge clear time %q", conf.MergeClearAt)
	}
	return &Scheduler{
		pickups:     pickups,
		merges:      merges,
		broadcaster: broadcaster,
		logger:      logger,
		poll:        conf.PollPeriod,
		purgePeriod: conf.PurgePeriod,
		pickupTTL:   conf.PickupTTL,
		clearHour:   hour,
		clearMinute: minute,
		now:         time.Now,
	}, nil
}

// Run polls until stop is closed. Duty failures are logged and retried on
// the next tick; they are never fatal.
func (s *Scheduler) Run(stop <-chan struct{}) {
	s.logger.Info("scheduler started")
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(s.now())
		case <-stop:
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) tick(now time.Time) {
	s.purgePickups(now)
	s.clearMerges(now)
}

// purgePickups removes acknowledged pickups older than the TTL, once per
// purge period. lastPurge only advances on success so a failed run retries
// on the next tick.
func (s *Scheduler) purgePickups(now time.Time) {
	if now.Sub(s.lastPurge) < s.purgePeriod {
		return
	}
	n, err := s.pickups.PurgeOlderThan(now.Add(-s.pickupTTL))
	if err != nil {
		s.logger.Error(fmt.Sprintf("purging pickups: %v", err), err)
		return
	}
	s.lastPurge = now
	if n > 0 {
		s.logger.Info(fmt.Sprintf("purged %d stale pickups", n))
	}
}

// clearMerges clears every active merge once the daily target time has
// passed, at most once per calendar day. A tick landing any time after the
// target still fires if the run has not fired today, which tolerates the
// target minute being missed entirely.
func (s *Scheduler) clearMerges(now time.Time) {
	day := now.Format(dateLayout)
	if s.lastClearDay == day {
		return
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), s.clearHour, s.clearMinute, 0, 0, now.Location())
	if now.Before(target) {
		return
	}
	removed, err := s.merges.ClearAll()
	if err != nil {
		s.logger.Error(fmt.Sprintf("clearing merges: %v", err), err)
		return
	}
	s.lastClearDay = day
	for _, m := range removed {
		s.broadcaster.MergeDeactivated(m)
	}
	if len(removed) > 0 {
		s.logger.Info(fmt.Sprintf("cleared %d class merges", len(removed)))
	}
}

func parseClockTime(val string) (hour, minute int, err error) {
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.New("expected HH:MM")
	}
	if hour, err = strconv.Atoi(parts[0]); err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.New("invalid hour")
	}
	if minute, err = strconv.Atoi(parts[1]); err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.New("invalid minute")
	}
	return hour, minute, nil
}
