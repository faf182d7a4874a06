// Package notify holds the membership-deduplication and join-reaction logic:
// resolving configured room names to IDs, answering "is this user already a
// member of another watched room", and turning membership events into invites
// and notification emails.
package notify

import (
	"context"
	"log/slog"
	"slices"

	"maunium.net/go/mautrix/id"
)

// Directory is the slice of the homeserver API the decision logic consumes.
// *matrixapi.Client satisfies it; tests substitute fakes.
type Directory interface {
	JoinedRooms(ctx context.Context) ([]id.RoomID, error)
	RoomName(ctx context.Context, room id.RoomID) (string, error)
	JoinedMembers(ctx context.Context, room id.RoomID) ([]id.UserID, error)
	Invite(ctx context.Context, room id.RoomID, user id.UserID) error
}

// Names is the configured name-level view of the rooms of interest.
type Names struct {
	Space  string
	Watch  []string
	Invite []string
}

// Watched returns the full watch list: the space itself plus the explicitly
// watched rooms.
func (n Names) Watched() []string {
	return append([]string{n.Space}, n.Watch...)
}

// Registry resolves configured room names to durable room IDs and holds the
// resolved sets for the lifetime of a session. It is written only from the
// single event-processing goroutine, so it carries no locking.
type Registry struct {
	names     Names
	spaceID   id.RoomID
	watchIDs  []id.RoomID
	inviteIDs []id.RoomID
}

func NewRegistry(names Names) *Registry {
	return &Registry{names: names}
}

// Resolve recomputes SpaceID, the watch set and the invite set from the
// server's current view of joined rooms. Each call starts from scratch, so
// repeated invocations are safe (last write wins). Rooms without a name are
// skipped. Failing to resolve every configured watch name is reported but not
// fatal; the service runs with partial watch coverage.
func (r *Registry) Resolve(ctx context.Context, dir Directory) error {
	rooms, err := dir.JoinedRooms(ctx)
	if err != nil {
		return err
	}
	watched := r.names.Watched()
	r.spaceID = ""
	r.watchIDs = r.watchIDs[:0]
	r.inviteIDs = r.inviteIDs[:0]
	for _, room := range rooms {
		name, err := dir.RoomName(ctx, room)
		if err != nil || name == "" {
			// rooms do not have to have a name
			continue
		}
		slog.Debug("subscribed room", slog.String("name", name), slog.String("room", string(room)))
		if slices.Contains(watched, name) {
			r.watchIDs = append(r.watchIDs, room)
		}
		if name == r.names.Space {
			r.spaceID = room
		}
		if slices.Contains(r.names.Invite, name) {
			slog.Debug("invitation target", slog.String("name", name), slog.String("room", string(room)))
			r.inviteIDs = append(r.inviteIDs, room)
		}
	}
	if len(r.watchIDs) != len(watched) {
		slog.Warn("could not resolve all watched room names; continuing with partial coverage (did the account join every room, and do they all have names?)",
			slog.Int("configured", len(watched)), slog.Int("resolved", len(r.watchIDs)))
	}
	return nil
}

// Resolved reports whether a resolve pass has produced at least one watched
// room ID. An empty watch set triggers a lazy re-resolve on the next event.
func (r *Registry) Resolved() bool {
	return len(r.watchIDs) > 0
}

// SpaceID is the resolved ID of the root space, or "" if unresolved.
func (r *Registry) SpaceID() id.RoomID { return r.spaceID }

// WatchIDs is the resolved watch set: the space plus the watched rooms.
func (r *Registry) WatchIDs() []id.RoomID { return r.watchIDs }

// InviteIDs is the resolved set of invite-target rooms.
func (r *Registry) InviteIDs() []id.RoomID { return r.inviteIDs }

// IsWatchedName reports whether a display name is one of the explicitly
// configured watch names. The space name does not count unless it is also
// listed as a watched room, so a plain space join invites without emailing.
// This is deliberately a name-level check: the email path of the reactor
// matches the live room name at event time, not the resolved ID set, and the
// two can diverge if a room is renamed mid-run.
func (r *Registry) IsWatchedName(name string) bool {
	return name != "" && slices.Contains(r.names.Watch, name)
}
