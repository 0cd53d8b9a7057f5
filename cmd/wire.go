package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/okhotin/tgherd/internal/adapters/repo/jsonfile"
	"github.com/okhotin/tgherd/internal/adapters/telegram"
	"github.com/okhotin/tgherd/internal/application"
	"github.com/okhotin/tgherd/internal/config"
	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

type app struct {
	cfg config.Config
	log *slog.Logger

	registry   *application.Registry
	selector   *application.Selector
	dispatcher *application.Dispatcher
	proxies    *application.ProxyService

	sessions ports.SessionStore
	cache    ports.AccountsCacheStore
	dispatch ports.DispatchStateStore
}

func wireApp() (*app, error) {
	cfg, err := config.Load(os.Getenv("TGHERD_CONFIG"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logLevel := slog.LevelWarn
	if os.Getenv("TGHERD_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cache := jsonfile.NewAccountsCacheStore(cfg.DataDir)
	pins := jsonfile.NewPinStore(cfg.DataDir)
	reactions := jsonfile.NewReactionStore(cfg.DataDir)
	proxyStore := jsonfile.NewProxyConfigStore(cfg.DataDir)

	sessions := telegram.NewFileSessionStore(cfg.SessionsDir)
	factory := telegram.NewFactory(&http.Client{Timeout: 90 * time.Second}, cfg.GatewayURL)

	peers := application.NewPeerCache()
	notifier := application.CacheScrubber{Notifier: ports.NopNotifier{}, Peers: peers}
	registry := application.NewRegistry(cache, sessions, factory, notifier, ports.SystemClock{}, log)

	dispatch := jsonfile.NewDispatchStateStore(cfg.DataDir)

	selector := application.NewSelector(registry, rand.New(rand.NewSource(time.Now().UnixNano())))
	if mode, ok := domain.ParseMode(cfg.DefaultMode); ok {
		selector.SetMode(mode)
	}
	selector.SetAdvanceOnReaction(cfg.AdvanceOnReaction)
	if state, found, err := dispatch.Load(context.Background()); err != nil {
		log.Warn("dispatch_state_load_failed", "error", err.Error())
	} else if found {
		selector.Restore(state)
	}

	proxies := application.NewProxyService(proxyStore, log)

	dispatcher := application.NewDispatcher(registry, selector, peers, reactions, pins, log).
		WithStickerSender(telegram.StickerSender{})

	return &app{
		cfg:        cfg,
		log:        log,
		registry:   registry,
		selector:   selector,
		dispatcher: dispatcher,
		proxies:    proxies,
		sessions:   sessions,
		cache:      cache,
		dispatch:   dispatch,
	}, nil
}

// saveDispatch persists the current selection configuration so mode
// changes survive to the next invocation.
func (a *app) saveDispatch(ctx context.Context) error {
	return a.dispatch.Save(ctx, a.selector.Snapshot())
}

// persistDispatch saves the selection state after an operation that may
// have moved the rotation cursor, so the next invocation continues from
// the same place. The cursor moves even when the dispatch itself failed,
// which is why the save is unconditional; a save failure only surfaces
// when the operation succeeded.
func (a *app) persistDispatch(ctx context.Context, opErr error) error {
	if saveErr := a.saveDispatch(ctx); saveErr != nil && opErr == nil {
		return fmt.Errorf("save dispatch state: %w", saveErr)
	}
	return opErr
}

// ensureLoaded connects the session files once per invocation. Commands
// that dispatch remote calls go through it; pure local commands do not.
func (a *app) ensureLoaded(ctx context.Context) error {
	if a.registry.Len() > 0 {
		return nil
	}
	loaded, err := a.registry.ReloadAll(ctx, false, a.proxies)
	if err != nil {
		return err
	}
	if loaded == 0 {
		return domain.ErrNoAccountAvailable
	}
	return nil
}
