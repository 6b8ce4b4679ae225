package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/config"
	"github.com/your-org/cart-sync/internal/domain/cart"
	"github.com/your-org/cart-sync/internal/infrastructure/database/redis"
	"github.com/your-org/cart-sync/internal/infrastructure/persistence"
	"github.com/your-org/cart-sync/internal/infrastructure/remote"
	"github.com/your-org/cart-sync/internal/pkg/logger"
	"github.com/your-org/cart-sync/internal/pkg/notify"
)

// flags shared by every subcommand
type options struct {
	remoteURL string
	session   string
	storage   string
	output    string
	verbose   bool
}

// app is the wiring behind one CLI invocation
type app struct {
	cfg    *config.Config
	log    *logrus.Entry
	engine *cart.Engine
	client *remote.Client
	closer func()
}

func newApp(ctx context.Context, opts *options, stderr io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.remoteURL != "" {
		cfg.Remote.BaseURL = opts.remoteURL
	}
	if opts.storage != "" {
		cfg.Storage.Provider = opts.storage
	}
	if opts.session != "" {
		cfg.Remote.SessionID = opts.session
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		log.Logger.SetLevel(logrus.DebugLevel)
		log.Logger.SetOutput(stderr)
	} else if cfg.Logging.File == "" {
		log.Logger.SetOutput(io.Discard)
	}

	a := &app{cfg: cfg, log: log, closer: func() {}}

	if cfg.Remote.SessionID == "" && cfg.Storage.Provider == "file" {
		cfg.Remote.SessionID, err = loadOrCreateSession(filepath.Join(filepath.Dir(cfg.Storage.FilePath), "session"))
		if err != nil {
			return nil, err
		}
	}

	a.client = remote.NewClient(remote.OptionsFromConfig(cfg), log)
	log = log.WithField("session_id", a.client.SessionID())

	store, err := a.newStore(log)
	if err != nil {
		return nil, err
	}

	notifier := notify.Multi{
		notify.NewWriterNotifier(stderr),
		notify.MinSeverity(cart.SeverityWarning, notify.NewLogNotifier(log)),
	}
	a.engine = cart.NewEngine(ctx, a.client, store, notifier, cart.WithLogger(log))
	a.log = log
	return a, nil
}

func (a *app) newStore(log logrus.FieldLogger) (cart.Store, error) {
	switch a.cfg.Storage.Provider {
	case "redis":
		client, err := redis.NewConnection(a.cfg, log)
		if err != nil {
			return nil, err
		}
		a.closer = func() { _ = client.Close() }
		key := a.cfg.Storage.Key + ":" + a.client.SessionID()
		return persistence.NewRedisStore(client.GetClient(), key, a.cfg.Storage.TTL, log), nil
	case "memory":
		return persistence.NewMemoryStore(), nil
	default:
		return persistence.NewFileStore(a.cfg.Storage.FilePath, log), nil
	}
}

func (a *app) Close() {
	a.closer()
}

// loadOrCreateSession keeps the remote session id next to the cart snapshot
// so consecutive invocations address the same remote cart.
func loadOrCreateSession(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to write session file: %w", err)
	}
	return id, nil
}
