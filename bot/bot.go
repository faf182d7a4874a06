// Package bot runs the Matrix session: login, /sync long-poll loop, and the
// supervising retry that restarts a fresh authenticated session after any
// failure. Events are handed to the join reactor synchronously, one at a
// time; there is no overlapping event processing.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsu-jena/matrix-notify/config"
	"github.com/fsu-jena/matrix-notify/mailer"
	"github.com/fsu-jena/matrix-notify/matrixapi"
	"github.com/fsu-jena/matrix-notify/notify"
	"github.com/fsu-jena/matrix-notify/telemetry"
)

// restartBackoff is the fixed delay between session restarts. Restarting
// (including re-authentication) is the sole resilience mechanism against
// connectivity loss and transient protocol errors.
const restartBackoff = 10 * time.Second

// Bot owns one process lifetime of the notifier: configuration, shared
// status for the operational endpoints, and the supervised session loop.
type Bot struct {
	cfg    *config.Config
	status *Status
}

func New(cfg *config.Config) *Bot {
	return &Bot{cfg: cfg, status: NewStatus()}
}

// Status exposes the shared status object for the HTTP surface.
func (b *Bot) Status() *Status {
	return b.status
}

// Supervise runs sessions until the context is cancelled, sleeping a fixed
// 10 s between attempts. Every iteration builds a fresh client, logs in
// again and rebuilds the room registry from scratch.
func (b *Bot) Supervise(ctx context.Context) {
	for {
		err := b.runSession(ctx)
		if ctx.Err() != nil {
			return
		}
		telemetry.SessionRestarts.Inc()
		b.status.RecordRestart()
		slog.Warn("session ended, retrying", slog.Any("err", err), slog.Duration("backoff", restartBackoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartBackoff):
		}
	}
}

// runSession performs one authenticated session: login, an initial sync to
// establish a batch token (its state snapshot is discarded so pre-existing
// members never replay as joins), then the long-poll loop.
func (b *Bot) runSession(ctx context.Context) error {
	client := matrixapi.NewClient(b.cfg.MatrixHost)
	if err := client.Login(ctx, b.cfg.MatrixUser, b.cfg.MatrixPassword); err != nil {
		return err
	}
	slog.Info("logged in", slog.String("user", string(client.UserID)))

	reg := notify.NewRegistry(notify.Names{
		Space:  b.cfg.Space,
		Watch:  b.cfg.WatchRooms,
		Invite: b.cfg.InviteRooms,
	})
	reactor := notify.NewReactor(reg, notify.NewOracle(reg, client), client, &mailer.SMTPMailer{
		Host:     b.cfg.SMTPHost,
		Port:     b.cfg.SMTPPort,
		Username: b.cfg.SMTPUser,
		Password: b.cfg.SMTPPassword,
		Subject:  b.cfg.EmailSubject,
		From:     b.cfg.EmailFrom,
		To:       b.cfg.EmailTo,
		ReplyTo:  b.cfg.EmailReplyTo,
	})

	since, _, err := client.Sync(ctx, "")
	if err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}
	b.status.RecordSync(reg)

	for {
		next, events, err := client.Sync(ctx, since)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("sync: %w", err)
		}
		for _, evt := range events {
			reactor.HandleMember(ctx, evt)
			b.status.RecordEvent()
		}
		since = next
		b.status.RecordSync(reg)
		telemetry.SetWatchedRooms(len(reg.WatchIDs()))
	}
}
