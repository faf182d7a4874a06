package notify

import (
	"context"
	"log/slog"
	"slices"

	"maunium.net/go/mautrix/id"
)

// Oracle answers membership questions against the live homeserver state.
// It never caches: every question is a fresh query, trading round-trips for
// correctness while memberships change underneath us.
type Oracle struct {
	reg *Registry
	dir Directory
}

func NewOracle(reg *Registry, dir Directory) *Oracle {
	return &Oracle{reg: reg, dir: dir}
}

// MembersOf returns the current joined members of a room. Query failures
// degrade to an empty list so an unreachable room reads as "nobody there"
// rather than an error.
func (o *Oracle) MembersOf(ctx context.Context, room id.RoomID) []id.UserID {
	members, err := o.dir.JoinedMembers(ctx, room)
	if err != nil {
		slog.Debug("member query failed, treating room as empty",
			slog.String("room", string(room)), slog.Any("err", err))
		return nil
	}
	return members
}

// IsKnownElsewhere reports whether the user is a joined member of any watched
// room other than the excluded one. It stops at the first match.
func (o *Oracle) IsKnownElsewhere(ctx context.Context, user id.UserID, excluding id.RoomID) bool {
	for _, room := range o.reg.WatchIDs() {
		if room == excluding {
			continue
		}
		if slices.Contains(o.MembersOf(ctx, room), user) {
			return true
		}
	}
	return false
}
