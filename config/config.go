// Package config loads the process configuration from environment variables
// and provides a typed Config used across the service. CLI flags (see the
// root command) override the environment; a password of "-" is a sentinel for
// "read one line from stdin".
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// StdinSentinel in a password field instructs ResolveSecrets to read the
// value from standard input (Matrix first, then SMTP).
const StdinSentinel = "-"

type Config struct {
	// Matrix
	MatrixHost     string
	MatrixUser     string
	MatrixPassword string

	// Rooms
	Space       string
	WatchRooms  []string
	InviteRooms []string

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	// Email headers
	EmailSubject string
	EmailFrom    string
	EmailTo      string
	EmailReplyTo string

	// Operational
	HTTPAddr string
	Verbose  bool
}

// Load reads environment variables and applies defaults. Validation is
// separate so flag overrides can be applied in between.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.MatrixHost = os.Getenv("MATRIX_HOST")
	cfg.MatrixUser = os.Getenv("MATRIX_USER")
	cfg.MatrixPassword = os.Getenv("MATRIX_PASSWORD")

	cfg.Space = os.Getenv("MATRIX_SPACE")
	cfg.WatchRooms = splitList(os.Getenv("MATRIX_WATCH"))
	cfg.InviteRooms = splitList(os.Getenv("MATRIX_INVITE"))

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("invalid SMTP_PORT %q", v)
		}
		cfg.SMTPPort = p
	}
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")

	cfg.EmailSubject = os.Getenv("EMAIL_SUBJECT")
	if cfg.EmailSubject == "" {
		cfg.EmailSubject = "New member"
	}
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	cfg.EmailTo = os.Getenv("EMAIL_TO")
	cfg.EmailReplyTo = os.Getenv("EMAIL_REPLYTO")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	cfg.Verbose = os.Getenv("VERBOSE") == "1"

	return cfg, nil
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"matrix host", c.MatrixHost},
		{"matrix user", c.MatrixUser},
		{"matrix password", c.MatrixPassword},
		{"space", c.Space},
		{"smtp host", c.SMTPHost},
		{"smtp user", c.SMTPUser},
		{"smtp password", c.SMTPPassword},
		{"email from", c.EmailFrom},
		{"email to", c.EmailTo},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ResolveSecrets replaces sentinel passwords with lines read from r, Matrix
// password first, then SMTP, matching the order a wrapper script would pipe
// them in.
func (c *Config) ResolveSecrets(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	readLine := func(what string) (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("reading %s from stdin: %w", what, err)
			}
			return "", fmt.Errorf("reading %s from stdin: unexpected end of input", what)
		}
		return scanner.Text(), nil
	}
	if c.MatrixPassword == StdinSentinel {
		pass, err := readLine("matrix password")
		if err != nil {
			return err
		}
		c.MatrixPassword = pass
	}
	if c.SMTPPassword == StdinSentinel {
		pass, err := readLine("smtp password")
		if err != nil {
			return err
		}
		c.SMTPPassword = pass
	}
	return nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
