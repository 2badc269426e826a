package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/danmuck/manifestd/internal/admin"
	"github.com/danmuck/manifestd/internal/logging"
	"github.com/danmuck/manifestd/internal/manifest"
	"github.com/danmuck/manifestd/internal/query"
	"github.com/danmuck/manifestd/internal/tree"
	"github.com/danmuck/manifestd/internal/validate"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoManifest        = errors.New("daemon: manifest path is required")
	ErrInvalidHeartbeat  = errors.New("daemon: invalid heartbeat interval")
	ErrNotBootstrapped   = errors.New("daemon: service not bootstrapped")
	ErrValidationFailure = errors.New("daemon: manifest failed validation")
)

// ServiceConfig configures the manifestd runtime.
type ServiceConfig struct {
	ListenAddr     string
	AdminAddr      string
	AdminToken     string
	ManifestPath   string
	ManifestFormat manifest.Format
	RulesPath      string
	// StrictRules refuses to start when the manifest fails validation.
	StrictRules bool
	Watch       bool
	Debounce    time.Duration
	Heartbeat   time.Duration
	CORSOrigins []string
	Query       query.Config
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ListenAddr:     "127.0.0.1:7400",
		AdminAddr:      "",
		ManifestPath:   "",
		ManifestFormat: manifest.FormatAuto,
		RulesPath:      "",
		StrictRules:    false,
		Watch:          false,
		Debounce:       manifest.DefaultDebounce,
		Heartbeat:      30 * time.Second,
		CORSOrigins:    []string{},
		Query:          query.DefaultConfig(),
	}
}

// Service owns the published manifest tree and the listeners serving it.
type Service struct {
	cfg    ServiceConfig
	trees  *tree.Holder
	engine *validate.Engine
	server *query.Server
	admin  *admin.Admin

	mu sync.Mutex
	ln net.Listener
}

func NewService(cfg ServiceConfig) *Service {
	cfg.Query = cfg.Query.WithDefaults()
	if cfg.ManifestFormat == "" {
		cfg.ManifestFormat = manifest.FormatAuto
	}
	return &Service{cfg: cfg, trees: tree.NewHolder(nil)}
}

// Run blocks until SIGINT or SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Bootstrap(); err != nil {
		return err
	}
	if _, err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Trees returns the holder publishing the current manifest.
func (s *Service) Trees() *tree.Holder {
	return s.trees
}

// Bootstrap loads the rule set and the manifest, validates it and builds the
// query and admin servers.
func (s *Service) Bootstrap() error {
	if strings.TrimSpace(s.cfg.ManifestPath) == "" {
		return ErrNoManifest
	}
	if s.cfg.Heartbeat < 0 {
		return ErrInvalidHeartbeat
	}

	var rules []validate.Rule
	if path := strings.TrimSpace(s.cfg.RulesPath); path != "" {
		loaded, err := validate.LoadRules(path)
		if err != nil {
			return err
		}
		rules = loaded
	}
	s.engine = validate.NewEngine(rules)

	store, err := manifest.Load(s.cfg.ManifestPath, s.cfg.ManifestFormat)
	if err != nil {
		return err
	}
	if report := s.validate(store); !report.OK() && s.cfg.StrictRules {
		return fmt.Errorf("%w: %d of %d evaluations failed", ErrValidationFailure, len(report.Failures), report.Evaluated)
	}
	s.trees.Swap(store)

	s.server = query.NewServer(s.trees, s.cfg.Query)
	if strings.TrimSpace(s.cfg.AdminAddr) != "" {
		s.admin = admin.New(admin.Options{
			Trees:       s.trees,
			Engine:      s.engine,
			CORSOrigins: s.cfg.CORSOrigins,
			Token:       s.cfg.AdminToken,
		})
	}
	log := logging.For("daemon")
	log.Info().
		Str("manifest", s.cfg.ManifestPath).
		Int("nodes", store.Len()).
		Int("rules", len(rules)).
		Msg("manifestd.Service.bootstrap ready")
	return nil
}

// Listen opens the query listener and returns its address.
func (s *Service) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", strings.TrimSpace(s.cfg.ListenAddr))
	if err != nil {
		return nil, fmt.Errorf("daemon: listen %s: %w", s.cfg.ListenAddr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return ln.Addr(), nil
}

// Serve runs the query server, the optional admin server and manifest watcher,
// and a heartbeat logger until ctx is done or one of them fails.
func (s *Service) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if s.server == nil || ln == nil {
		return ErrNotBootstrapped
	}

	var watcher *manifest.Watcher
	if s.cfg.Watch {
		w, err := manifest.NewWatcher(s.cfg.ManifestPath, s.trees, manifest.WatchConfig{
			Format:   s.cfg.ManifestFormat,
			Debounce: s.cfg.Debounce,
			OnReload: func(store *tree.Store) { s.validate(store) },
		})
		if err != nil {
			return err
		}
		watcher = w
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.server.Serve(ctx, ln)
	})
	if s.admin != nil {
		g.Go(func() error {
			return s.admin.Serve(ctx, s.cfg.AdminAddr)
		})
	}
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}
	if s.cfg.Heartbeat > 0 {
		g.Go(func() error {
			s.heartbeat(ctx)
			return nil
		})
	}

	err := g.Wait()
	log := logging.For("daemon")
	log.Info().Msg("manifestd.Service.serve shutdown")
	return err
}

func (s *Service) validate(store *tree.Store) validate.Report {
	report := s.engine.Run(store)
	log := logging.For("daemon")
	if report.OK() {
		log.Info().Int("rules", report.Rules).Int("evaluated", report.Evaluated).Msg("manifest validated")
		return report
	}
	for _, f := range report.Failures {
		log.Warn().
			Str("predicate", string(f.Predicate)).
			Str("path", f.Path).
			Str("value", f.Value).
			Str("message", f.Message).
			Msg("manifest validation failure")
	}
	return report
}

func (s *Service) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Heartbeat)
	defer ticker.Stop()
	log := logging.For("daemon")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			nodes := 0
			if store := s.trees.Load(); store != nil {
				nodes = store.Len()
			}
			log.Info().
				Int64("sessions", s.server.ActiveSessions()).
				Int("nodes", nodes).
				Msg("manifestd.Service.heartbeat")
		}
	}
}
