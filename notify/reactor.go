package notify

import (
	"context"
	"log/slog"
	"time"

	"maunium.net/go/mautrix/id"

	"github.com/fsu-jena/matrix-notify/matrixapi"
	"github.com/fsu-jena/matrix-notify/telemetry"
)

// Notification carries the fields of a new-member email.
type Notification struct {
	DisplayName string
	UserID      id.UserID
	RoomKind    string // "space" when the join hit the space itself, else "room"
	RoomName    string
}

// Mailer delivers a composed notification. Implemented by mailer.SMTPMailer;
// tests capture the notifications instead.
type Mailer interface {
	Send(ctx context.Context, n Notification) error
}

// Reactor applies the join rules to membership events. Per event:
// classify (join or not), dedup against the other watched rooms, then invite
// and/or email. All side effects go through the Directory and Mailer so they
// can be observed in tests.
type Reactor struct {
	reg    *Registry
	oracle *Oracle
	dir    Directory
	mailer Mailer
}

func NewReactor(reg *Registry, oracle *Oracle, dir Directory, mailer Mailer) *Reactor {
	return &Reactor{reg: reg, oracle: oracle, dir: dir, mailer: mailer}
}

// HandleMember processes one membership event to completion. It never
// returns an error: every failure mode downstream of classification is
// logged and absorbed so the event loop keeps running.
func (r *Reactor) HandleMember(ctx context.Context, evt matrixapi.MemberEvent) {
	telemetry.MemberEventsSeen.Inc()
	// A join is a transition into "join"; echoes carrying an unchanged
	// membership state are dropped here.
	if evt.Membership != matrixapi.MembershipJoin || evt.Membership == evt.PrevMembership {
		return
	}
	telemetry.JoinsSeen.Inc()
	start := time.Now()
	defer func() {
		if telemetry.HandleDuration != nil {
			telemetry.HandleDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if !r.reg.Resolved() {
		if err := r.reg.Resolve(ctx, r.dir); err != nil {
			slog.Warn("room resolution failed", slog.Any("err", err))
		} else {
			slog.Info("watching rooms", slog.Int("watched", len(r.reg.WatchIDs())), slog.Int("invite_targets", len(r.reg.InviteIDs())))
		}
	}

	// The live name at event time, not the startup snapshot.
	roomName, err := r.dir.RoomName(ctx, evt.RoomID)
	if err != nil {
		roomName = ""
	}
	slog.Debug("user joined",
		slog.String("user", string(evt.UserID)),
		slog.String("room", string(evt.RoomID)),
		slog.String("room_name", roomName))

	if r.oracle.IsKnownElsewhere(ctx, evt.UserID, evt.RoomID) {
		telemetry.KnownUserSuppressions.Inc()
		slog.Debug("user already known elsewhere, not doing anything", slog.String("user", string(evt.UserID)))
		return
	}

	kind := "room"
	if evt.RoomID == r.reg.SpaceID() {
		kind = "space"
		r.inviteAll(ctx, evt.UserID)
	}

	// Name-based check, matching the configured watch names against the live
	// display name. Kept distinct from the ID-based watch set above; see the
	// Registry.IsWatchedName doc for the rename caveat.
	if r.reg.IsWatchedName(roomName) {
		display := evt.DisplayName
		if display == "" {
			display = string(evt.UserID)
		}
		n := Notification{DisplayName: display, UserID: evt.UserID, RoomKind: kind, RoomName: roomName}
		if err := r.mailer.Send(ctx, n); err != nil {
			telemetry.EmailsFailed.Inc()
			slog.Warn("notification email failed",
				slog.String("user", string(evt.UserID)),
				slog.String("room", string(evt.RoomID)),
				slog.Any("err", err))
		} else {
			telemetry.EmailsSent.Inc()
			slog.Info("notification email sent",
				slog.String("user", string(evt.UserID)),
				slog.String("room_name", roomName))
		}
	}
}

// inviteAll issues one invite per target room. Attempts are independent: a
// failing room is logged and the loop moves on to the next target.
func (r *Reactor) inviteAll(ctx context.Context, user id.UserID) {
	for _, target := range r.reg.InviteIDs() {
		if err := r.dir.Invite(ctx, target, user); err != nil {
			telemetry.InvitesFailed.Inc()
			slog.Warn("invite failed",
				slog.String("user", string(user)),
				slog.String("room", string(target)),
				slog.Any("err", err))
			continue
		}
		telemetry.InvitesSent.Inc()
		slog.Info("invited new member",
			slog.String("user", string(user)),
			slog.String("room", string(target)))
	}
}
