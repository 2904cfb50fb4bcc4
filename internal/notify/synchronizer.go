package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/Dton04/hoterier-cli/internal/logger"
	"github.com/Dton04/hoterier-cli/internal/models"
)

// Phase of the synchronizer lifecycle.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseCacheHydrated
	PhaseFeedLoaded
	PhaseLive
)

// maxLive bounds the list for live-appended items; feed pulls replace the
// whole list anyway.
const maxLive = 10

// FeedClient is the slice of the REST client the synchronizer needs.
type FeedClient interface {
	NotificationFeed(ctx context.Context) ([]models.Notification, error)
	PublicLatest(ctx context.Context) ([]models.Notification, error)
}

// EventSource is the slice of the realtime transport the synchronizer needs.
type EventSource interface {
	On(event string, h func(data json.RawMessage)) func()
}

// Synchronizer merges three sources of truth into one ordered, deduplicated,
// audience-filtered notification list: the cached local snapshot, the REST
// feed, and live pushes. Pull replaces, push prepends; expiry is handled by
// per-id timers so a banner disappears without a reload.
type Synchronizer struct {
	api   FeedClient
	store SnapshotStore
	sched *Scheduler
	now   func() time.Time
	log   *logrus.Entry

	mu       sync.Mutex
	identity models.Identity
	items    []models.Notification
	lastSeen time.Time
	hasNew   bool
	phase    Phase

	updates chan []models.Notification
	cron    *gocron.Scheduler
}

func New(api FeedClient, store SnapshotStore, identity models.Identity) *Synchronizer {
	return &Synchronizer{
		api:      api,
		store:    store,
		sched:    NewScheduler(),
		now:      time.Now,
		identity: identity,
		updates:  make(chan []models.Notification, 16),
		log:      logger.Log.WithField("component", "notify"),
	}
}

// Updates delivers list snapshots after every change. Slow consumers miss
// intermediate states, never the latest-on-next-change.
func (s *Synchronizer) Updates() <-chan []models.Notification {
	return s.updates
}

// Phase returns the current lifecycle phase.
func (s *Synchronizer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// HydrateFromCache installs the persisted snapshot as the provisional list
// before any network call resolves. Never fails; a bad cache reads as empty.
func (s *Synchronizer) HydrateFromCache() {
	snap, _ := s.store.Load()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = snap.LastSeen
	s.items = s.items[:0]
	for _, n := range snap.Notifications {
		if !n.EligibleFor(s.identity) || !n.VisibleAt(now) {
			continue
		}
		s.items = append(s.items, n)
		s.scheduleExpiryLocked(n)
	}
	s.hasNew = s.anyUnseenLocked()
	if s.phase == PhaseInit {
		s.phase = PhaseCacheHydrated
	}
	s.publishLocked()
}

// PullFeed fetches the authenticated feed (or the public latest for anonymous
// sessions), filters it, and replaces both the in-memory list and the
// persisted cache. Replacement, not merge: no residue from prior pushes.
func (s *Synchronizer) PullFeed(ctx context.Context) error {
	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()

	var (
		pulled []models.Notification
		err    error
	)
	if identity.Anonymous() {
		pulled, err = s.api.PublicLatest(ctx)
	} else {
		pulled, err = s.api.NotificationFeed(ctx)
	}
	if err != nil {
		return err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items[:0]
	for _, n := range pulled {
		if !n.VisibleAt(now) || !n.EligibleFor(s.identity) {
			continue
		}
		s.items = append(s.items, n)
		s.scheduleExpiryLocked(n)
	}
	s.hasNew = s.anyUnseenLocked()
	if s.phase < PhaseFeedLoaded {
		s.phase = PhaseFeedLoaded
	}
	s.persistLocked()
	s.publishLocked()
	return nil
}

// OnLiveNew ingests a pushed notification. Ineligible payloads are discarded;
// a future start window schedules insertion instead of showing it early.
func (s *Synchronizer) OnLiveNew(data json.RawMessage) {
	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil || n.ID == "" {
		s.log.WithError(err).Debug("dropping malformed notification push")
		return
	}

	s.mu.Lock()
	eligible := n.EligibleFor(s.identity)
	s.mu.Unlock()
	if !eligible {
		return
	}

	now := s.now()
	if n.EndsAt != nil && n.EndsAt.Before(now) {
		// Already past its window at receipt time; never display.
		return
	}
	if n.StartsAt != nil && n.StartsAt.After(now) {
		s.sched.Schedule(n.ID, *n.StartsAt, func() { s.insertLive(n) })
		return
	}
	s.insertLive(n)
}

func (s *Synchronizer) insertLive(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Dedup across reconnect replays.
	for _, existing := range s.items {
		if existing.ID == n.ID {
			s.scheduleExpiryLocked(n)
			return
		}
	}

	s.items = append([]models.Notification{n}, s.items...)
	if len(s.items) > maxLive {
		s.items = s.items[:maxLive]
	}
	s.hasNew = true
	s.scheduleExpiryLocked(n)
	s.persistLocked()
	s.publishLocked()
}

// OnLiveExpired removes a notification the server withdrew, cancelling any
// pending timer for it.
func (s *Synchronizer) OnLiveExpired(data json.RawMessage) {
	var payload models.ExpiredPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ID == "" {
		return
	}
	s.sched.Cancel(payload.ID)
	s.remove(payload.ID)
}

func (s *Synchronizer) expire(id string) {
	s.remove(id)
}

func (s *Synchronizer) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	removed := false
	for _, n := range s.items {
		if n.ID == id {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	s.items = kept
	if removed {
		s.persistLocked()
		s.publishLocked()
	}
}

// MarkSeen records now as the last-seen marker. It only gates the has-new
// indicator; it never filters content.
func (s *Synchronizer) MarkSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	s.hasNew = false
	s.persistLocked()
}

// SetIdentity re-runs eligibility over the current list. Login and logout
// must not leave another audience's notifications on screen.
func (s *Synchronizer) SetIdentity(identity models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = identity
	kept := s.items[:0]
	for _, n := range s.items {
		if n.EligibleFor(identity) {
			kept = append(kept, n)
			continue
		}
		s.sched.Cancel(n.ID)
	}
	s.items = kept
	s.persistLocked()
	s.publishLocked()
}

// Notifications returns a copy of the current visible list, most recent first
// for live-pushed items; feed order is preserved for pulled items.
func (s *Synchronizer) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.items...)
}

// HasNew reports whether something arrived since the last MarkSeen.
func (s *Synchronizer) HasNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasNew
}

// Bind subscribes the synchronizer to the realtime channel. The feed is
// re-pulled after every (re)connect; room rejoin is not needed for
// notifications. Returns a disposer releasing all subscriptions.
func (s *Synchronizer) Bind(src EventSource) func() {
	offNew := src.On(models.EventNotificationNew, s.OnLiveNew)
	offExpired := src.On(models.EventNotificationExpired, s.OnLiveExpired)
	offConnect := src.On(models.EventConnect, func(json.RawMessage) {
		s.mu.Lock()
		s.phase = PhaseLive
		s.mu.Unlock()
		go func() {
			if err := s.PullFeed(context.Background()); err != nil {
				s.log.WithError(err).Debug("feed re-pull after connect failed")
			}
		}()
	})
	return func() {
		offNew()
		offExpired()
		offConnect()
	}
}

// StartAutoRefresh re-pulls the feed on a fixed interval; background errors
// are absorbed. Stop tears it down.
func (s *Synchronizer) StartAutoRefresh(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}
	cron := gocron.NewScheduler(time.Local)
	_, err := cron.Every(interval).Do(func() {
		if err := s.PullFeed(context.Background()); err != nil {
			s.log.WithError(err).Debug("periodic feed refresh failed")
		}
	})
	if err != nil {
		s.log.WithError(err).Warn("failed to schedule feed refresh")
		return
	}
	cron.StartAsync()
	s.cron = cron
}

// Stop cancels all timers and the refresh job.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	cron := s.cron
	s.cron = nil
	s.mu.Unlock()
	if cron != nil {
		cron.Stop()
	}
	s.sched.Stop()
}

func (s *Synchronizer) scheduleExpiryLocked(n models.Notification) {
	if n.EndsAt == nil {
		return
	}
	id := n.ID
	s.sched.Schedule(id, *n.EndsAt, func() { s.expire(id) })
}

func (s *Synchronizer) anyUnseenLocked() bool {
	for _, n := range s.items {
		if n.CreatedAt.After(s.lastSeen) {
			return true
		}
	}
	return false
}

func (s *Synchronizer) persistLocked() {
	snap := Snapshot{
		Notifications: append([]models.Notification(nil), s.items...),
		LastSeen:      s.lastSeen,
	}
	if err := s.store.Save(snap); err != nil {
		s.log.WithError(err).Debug("persisting notification snapshot failed")
	}
}

func (s *Synchronizer) publishLocked() {
	snapshot := append([]models.Notification(nil), s.items...)
	select {
	case s.updates <- snapshot:
	default:
		// Consumer is behind; it will pick up the next change.
	}
}
