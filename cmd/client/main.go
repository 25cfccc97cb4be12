package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"pypoker-client/internal/config"
	"pypoker-client/pkg/ranking"
	"pypoker-client/pkg/render"
	"pypoker-client/pkg/render/terminal"
	"pypoker-client/pkg/session"
)

// Version is the client version
var Version = "v0.0.0-dev"

var serverURL = flag.String("url", "", "the game server websocket url, overrides the configuration")
var plain = flag.Bool("plain", false, "log state changes instead of drawing the table")

func main() {
	flag.Parse()
	setupLogger()

	cfg := config.Instance()
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}

	logrus.WithFields(logrus.Fields{
		"version": Version,
		"url":     cfg.Server.URL,
	}).Debug("starting client")

	renderer := newRenderer(*plain)

	var opts []session.Option
	if base, err := rankingBaseURL(cfg); err != nil {
		logrus.WithError(err).Warn("ranking disabled")
	} else {
		client := ranking.NewClient(base)
		if cfg.Server.Cookie != "" {
			client.SetHeader("Cookie", cfg.Server.Cookie)
		}

		opts = append(opts, session.WithRanking(client))
	}

	s := session.New(session.Config{
		Seats:               cfg.Table.Seats,
		TurnTimeout:         cfg.Table.TurnTimeout,
		ExpiryLead:          cfg.Table.ExpiryLead,
		InteractionCooldown: cfg.Table.InteractionCooldown,
	}, renderer, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if readCommands(os.Stdin, os.Stdout, s) {
			stop()
		}
	}()

	if err := connect(ctx, s, cfg, handshakeHeader(cfg), renderer); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Fatal("giving up")
	}
}

// connect runs the session, dialing again whenever the connection is lost
func connect(ctx context.Context, s *session.Session, cfg config.Config, header http.Header, renderer render.Renderer) error {
	attempts := 0
	for {
		renderer.Status(render.StatusConnecting, fmt.Sprintf("connecting to %s", cfg.Server.URL))

		conn, err := session.Dial(ctx, cfg.Server.URL, header)
		if err == nil {
			attempts = 0
			err = s.Run(ctx, conn)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempts++
		if cfg.Reconnect.MaxAttempts > 0 && attempts >= cfg.Reconnect.MaxAttempts {
			return fmt.Errorf("%d failed attempts: %w", attempts, err)
		}

		logrus.WithError(err).WithField("retryIn", cfg.Reconnect.Delay).Warn("connection lost")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Reconnect.Delay):
		}
	}
}

func newRenderer(plain bool) render.Renderer {
	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return render.NewLogger(logrus.StandardLogger())
	}

	return terminal.New(os.Stdout)
}

func handshakeHeader(cfg config.Config) http.Header {
	header := http.Header{}
	if cfg.Server.Cookie != "" {
		header.Set("Cookie", cfg.Server.Cookie)
	}

	if cfg.Server.Origin != "" {
		header.Set("Origin", cfg.Server.Origin)
	}

	return header
}

// rankingBaseURL returns the configured ranking url, or the game server's host over http
func rankingBaseURL(cfg config.Config) (string, error) {
	if cfg.Server.RankingURL != "" {
		return cfg.Server.RankingURL, nil
	}

	u, err := url.Parse(cfg.Server.URL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "ws", "http":
		u.Scheme = "http"
	case "wss", "https":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	return u.Scheme + "://" + u.Host, nil
}

func setupLogger() {
	if lvl := config.Instance().Log.Level; lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			logrus.WithError(err).Fatal("could not parse level")
		}

		logrus.SetLevel(level)
	}

	if strings.ToLower(config.Instance().Log.Format) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
