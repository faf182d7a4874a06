package bot

import (
	"sync"
	"time"

	"github.com/fsu-jena/matrix-notify/notify"
)

// Status is the mutex-guarded view of the running session consumed by the
// HTTP health/status endpoints. The bot goroutine writes it; the HTTP
// handlers only read snapshots.
type Status struct {
	mu sync.Mutex

	startedAt     time.Time
	lastSyncAt    time.Time
	lastEventAt   time.Time
	restarts      int
	watchedRooms  int
	inviteTargets int
	spaceResolved bool
}

// Snapshot is a point-in-time copy of Status for JSON encoding.
type Snapshot struct {
	StartedAt     time.Time `json:"started_at"`
	LastSyncAt    time.Time `json:"last_sync_at"`
	LastEventAt   time.Time `json:"last_event_at"`
	Restarts      int       `json:"restarts"`
	WatchedRooms  int       `json:"watched_rooms"`
	InviteTargets int       `json:"invite_targets"`
	SpaceResolved bool      `json:"space_resolved"`
}

func NewStatus() *Status {
	return &Status{startedAt: time.Now().UTC()}
}

// RecordSync notes a completed sync round and the registry's resolved sizes.
func (s *Status) RecordSync(reg *notify.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncAt = time.Now().UTC()
	s.watchedRooms = len(reg.WatchIDs())
	s.inviteTargets = len(reg.InviteIDs())
	s.spaceResolved = reg.SpaceID() != ""
}

// RecordEvent notes a processed membership event.
func (s *Status) RecordEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEventAt = time.Now().UTC()
}

// RecordRestart notes a supervisor restart.
func (s *Status) RecordRestart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restarts++
}

// Snapshot returns a copy safe for concurrent readers.
func (s *Status) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		StartedAt:     s.startedAt,
		LastSyncAt:    s.lastSyncAt,
		LastEventAt:   s.lastEventAt,
		Restarts:      s.restarts,
		WatchedRooms:  s.watchedRooms,
		InviteTargets: s.inviteTargets,
		SpaceResolved: s.spaceResolved,
	}
}

// Ready reports whether the service has completed a sync recently enough to
// be considered live on the event stream.
func (s *Status) Ready(staleAfter time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lastSyncAt.IsZero() && time.Since(s.lastSyncAt) < staleAfter
}
