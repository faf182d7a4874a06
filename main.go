// Command matrix-notify emails notifications and issues invites when new
// members join a watched Matrix space or room. It:
//   - Loads configuration from flags and environment, initializes structured logging.
//   - Logs into the homeserver and long-polls /sync for membership events.
//   - Applies the dedup rule (new member vs. already known from another
//     watched room), invites new space joiners, and sends notification mail.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM. Any session failure is retried
// indefinitely with a fixed 10 s backoff.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fsu-jena/matrix-notify/bot"
	"github.com/fsu-jena/matrix-notify/config"
	"github.com/fsu-jena/matrix-notify/server"
	"github.com/fsu-jena/matrix-notify/telemetry"
)

var flags struct {
	matrixHost string
	matrixUser string
	matrixPass string
	space      string
	watch      []string
	invite     []string

	smtpHost string
	smtpPort int
	smtpUser string
	smtpPass string

	emailSubject string
	emailFrom    string
	emailTo      string
	emailReplyTo string

	httpAddr string
	verbose  bool
}

var rootCmd = &cobra.Command{
	Use:   "matrix-notify",
	Short: "Email notifications and matrix invites for user joins",
	Long: `matrix-notify watches a Matrix space and a set of rooms for new members.
A member is "new" when they are not already joined to any other watched room.
New space joiners are invited into the configured rooms; new members of
watched rooms trigger a notification email.

Passwords given as "-" are read from stdin, matrix password first, e.g.:
  printf '%s\n%s\n' "$MATRIX_PW" "$SMTP_PW" | matrix-notify --matrix-pass - --smtp-pass - ...`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.matrixHost, "matrix-host", "", "hostname of the matrix server")
	f.StringVar(&flags.matrixUser, "matrix-user", "", "user name for the matrix server")
	f.StringVar(&flags.matrixPass, "matrix-pass", "", `password for the matrix user, read from stdin if "-"`)
	f.StringVar(&flags.space, "matrix-space", "", "name of the space to watch")
	f.StringSliceVar(&flags.watch, "matrix-watch", nil, "matrix rooms to watch for new members")
	f.StringSliceVar(&flags.invite, "matrix-invite", nil, "matrix rooms to invite new space members to")
	f.StringVar(&flags.smtpHost, "smtp-host", "", "hostname of the SMTP server")
	f.IntVar(&flags.smtpPort, "smtp-port", 587, "port of the SMTP server")
	f.StringVar(&flags.smtpUser, "smtp-user", "", "username for the SMTP server")
	f.StringVar(&flags.smtpPass, "smtp-pass", "", `password for the SMTP user, read from stdin if "-" (after the matrix password)`)
	f.StringVar(&flags.emailSubject, "email-subject", "New member", "subject of the notification email")
	f.StringVar(&flags.emailFrom, "email-from", "", "sender address of the notification email")
	f.StringVar(&flags.emailTo, "email-to", "", "recipient address of the notification email")
	f.StringVar(&flags.emailReplyTo, "email-replyto", "", "Reply-To header of the notification email")
	f.StringVar(&flags.httpAddr, "http-addr", "", "listen address of the health/metrics server (default :8080)")
	f.BoolVar(&flags.verbose, "verbose", false, "log at debug level")
}

func run(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.ResolveSecrets(os.Stdin); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogging(cfg.Verbose)

	// Metrics / telemetry init
	telemetry.Init()

	shutdown, err := telemetry.InitTracing("matrix-notify", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.New(cfg)

	go func() {
		if err := server.Start(ctx, b.Status(), cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	b.Supervise(ctx)
	slog.Info("shutting down")
	return nil
}

// applyFlagOverrides copies every flag the user set on the command line over
// the environment-derived config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("matrix-host") {
		cfg.MatrixHost = flags.matrixHost
	}
	if f.Changed("matrix-user") {
		cfg.MatrixUser = flags.matrixUser
	}
	if f.Changed("matrix-pass") {
		cfg.MatrixPassword = flags.matrixPass
	}
	if f.Changed("matrix-space") {
		cfg.Space = flags.space
	}
	if f.Changed("matrix-watch") {
		cfg.WatchRooms = flags.watch
	}
	if f.Changed("matrix-invite") {
		cfg.InviteRooms = flags.invite
	}
	if f.Changed("smtp-host") {
		cfg.SMTPHost = flags.smtpHost
	}
	if f.Changed("smtp-port") {
		cfg.SMTPPort = flags.smtpPort
	}
	if f.Changed("smtp-user") {
		cfg.SMTPUser = flags.smtpUser
	}
	if f.Changed("smtp-pass") {
		cfg.SMTPPassword = flags.smtpPass
	}
	if f.Changed("email-subject") {
		cfg.EmailSubject = flags.emailSubject
	}
	if f.Changed("email-from") {
		cfg.EmailFrom = flags.emailFrom
	}
	if f.Changed("email-to") {
		cfg.EmailTo = flags.emailTo
	}
	if f.Changed("email-replyto") {
		cfg.EmailReplyTo = flags.emailReplyTo
	}
	if f.Changed("http-addr") {
		cfg.HTTPAddr = flags.httpAddr
	}
	if f.Changed("verbose") {
		cfg.Verbose = flags.verbose
	}
}

// setupLogging configures the default slog handler. Level comes from the
// verbose flag or LOG_LEVEL; format from LOG_FORMAT (text | json).
func setupLogging(verbose bool) {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", slog.Any("err", err))
		os.Exit(1)
	}
}
