package application

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/okhotin/tgherd/internal/domain"
	"github.com/okhotin/tgherd/internal/ports"
)

// ProxyService owns the proxy pool and the session/user assignment maps,
// keeping the persisted store in sync after every mutation.
type ProxyService struct {
	mu     sync.Mutex
	store  ports.ProxyConfigStore
	cfg    domain.ProxyConfig
	loaded bool
	log    *slog.Logger
}

func NewProxyService(store ports.ProxyConfigStore, log *slog.Logger) *ProxyService {
	if log == nil {
		log = slog.Default()
	}
	return &ProxyService{store: store, log: log}
}

// LoadReport summarizes one pool reload.
type LoadReport struct {
	Parsed   int
	Skipped  int
	Assigned int
}

// LoadPool parses a proxy list (one descriptor per line), replaces the
// pool, prunes assignments that now point outside it, and auto-assigns
// every known session that lacks an assignment. Malformed lines are
// counted and skipped, never fatal; an input that yields zero descriptors
// is an error.
func (s *ProxyService) LoadPool(ctx context.Context, input io.Reader, sessions []string) (LoadReport, error) {
	var report LoadReport
	var pool []domain.ProxyDescriptor

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		desc, ok := domain.ParseProxyLine(line)
		if !ok {
			report.Skipped++
			continue
		}
		pool = append(pool, *desc)
		report.Parsed++
	}
	if err := scanner.Err(); err != nil {
		return LoadReport{}, fmt.Errorf("read proxy list: %w", err)
	}
	if len(pool) == 0 {
		return LoadReport{}, fmt.Errorf("no valid proxy lines in input")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return LoadReport{}, err
	}

	s.cfg.Load(pool)
	sorted := append([]string(nil), sessions...)
	sort.Strings(sorted)
	report.Assigned = s.cfg.AutoAssign(sorted)

	if err := s.store.Save(ctx, s.cfg); err != nil {
		return LoadReport{}, fmt.Errorf("save proxy config: %w", err)
	}

	s.log.Info("proxy_pool_loaded",
		"pool_size", len(pool),
		"skipped_lines", report.Skipped,
		"auto_assigned", report.Assigned,
	)
	return report, nil
}

// ResolveForSession returns the proxy bound to a session, nil when none.
func (s *ProxyService) ResolveForSession(ctx context.Context, session string) *domain.ProxyDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil
	}
	return s.cfg.ResolveForSession(session)
}

// BindUser records the user-id view of a session's assignment once the
// owning user is known, persisting when something changed.
func (s *ProxyService) BindUser(ctx context.Context, uid domain.UserID, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return err
	}
	if !s.cfg.BindUser(uid, session) {
		return nil
	}
	if err := s.store.Save(ctx, s.cfg); err != nil {
		return fmt.Errorf("save proxy config: %w", err)
	}
	return nil
}

// Config returns a snapshot of the current pool and assignments.
func (s *ProxyService) Config(ctx context.Context) (domain.ProxyConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return domain.ProxyConfig{}, err
	}
	snapshot := domain.ProxyConfig{
		Pool:      append([]domain.ProxyDescriptor(nil), s.cfg.Pool...),
		BySession: map[string]int{},
		ByUser:    map[string]int{},
	}
	for k, v := range s.cfg.BySession {
		snapshot.BySession[k] = v
	}
	for k, v := range s.cfg.ByUser {
		snapshot.ByUser[k] = v
	}
	return snapshot, nil
}

func (s *ProxyService) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load proxy config: %w", err)
	}
	if cfg.BySession == nil {
		cfg.BySession = map[string]int{}
	}
	if cfg.ByUser == nil {
		cfg.ByUser = map[string]int{}
	}
	s.cfg = cfg
	s.loaded = true
	return nil
}
