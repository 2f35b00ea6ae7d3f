package sitemapsubmit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Service wires the dispatcher, invalidator and verifier from a Config and
// exposes them to the host.
type Service struct {
	cfg Config

	httpClient *http.Client
	registry   *prometheus.Registry
	metrics    *Metrics

	pinger      *Pinger
	invalidator *CacheInvalidator
	dispatcher  *Dispatcher
	verifier    *Verifier
	trigger     Trigger

	fileLog *FileLog

	mu sync.RWMutex // guards cfg.Sitemap

	closers []func()
}

type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	httpClient *http.Client
	logs       []ActivityLog
	stores     map[CacheBackendKind]CacheStore
}

// WithHTTPClient replaces the client used for pings and purges.
func WithHTTPClient(c *http.Client) ServiceOption {
	return func(o *serviceOptions) { o.httpClient = c }
}

// WithActivityLog adds an extra activity log channel.
func WithActivityLog(l ActivityLog) ServiceOption {
	return func(o *serviceOptions) { o.logs = append(o.logs, l) }
}

// WithCacheStore uses store for kind instead of opening one from config.
func WithCacheStore(kind CacheBackendKind, store CacheStore) ServiceOption {
	return func(o *serviceOptions) {
		if o.stores == nil {
			o.stores = map[CacheBackendKind]CacheStore{}
		}
		o.stores[kind] = store
	}
}

func NewService(ctx context.Context, cfg Config, opts ...ServiceOption) (*Service, error) {
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.PingTimeout()}
	}

	s := &Service{
		cfg:        cfg,
		httpClient: o.httpClient,
		registry:   prometheus.NewRegistry(),
		trigger:    NewTrigger(&cfg),
	}
	s.metrics = NewMetrics(s.registry)

	stores, err := s.openStores(ctx, o.stores)
	if err != nil {
		s.Close()
		return nil, err
	}

	logs := MultiLog{NewSlogLog(nil)}
	if cfg.Log.Dir != "" {
		fl, err := NewFileLog(cfg.Log.Dir)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.fileLog = fl
		logs = append(logs, fl)
	}
	if cfg.Log.PostgresURL != "" {
		pl, err := NewPostgresLog(ctx, cfg.Log.PostgresURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, pl.Close)
		logs = append(logs, pl)
	}
	logs = append(logs, o.logs...)

	s.pinger = NewPinger(s.httpClient,
		WithUserAgent(cfg.Pinger.UserAgent),
		WithMaxBody(cfg.MaxBodyBytes()),
		WithPingMetrics(s.metrics),
	)
	s.invalidator = NewCacheInvalidator(
		NewRegistryResolver(NewStaticRegistry(cfg.CacheDescriptor()), cfg.Cache.Module, s.httpClient, stores),
		s.metrics,
	)
	s.dispatcher = NewDispatcher(DispatcherConfig{
		Endpoints:     cfg.Endpoints,
		SitemapURL:    cfg.Sitemap.URL,
		ClearCache:    cfg.ClearCacheOnChange(),
		WarnOnFailure: cfg.Warn(),
	}, s.pinger, s.invalidator, logs, WithDispatchMetrics(s.metrics))
	s.verifier = NewVerifier(s.pinger, s.httpClient, cfg.SiteRoot, cfg.VerifyDocument)

	return s, nil
}

func (s *Service) openStores(ctx context.Context, given map[CacheBackendKind]CacheStore) (map[CacheBackendKind]CacheStore, error) {
	stores := map[CacheBackendKind]CacheStore{}
	for k, v := range given {
		stores[k] = v
	}
	c := s.cfg.Cache
	if !c.Installed || c.NativeURL != "" {
		return stores, nil
	}

	switch c.Backend {
	case "leveldb":
		if _, ok := stores[BackendKeyValue]; ok {
			break
		}
		st, err := NewLevelDBStore(c.LevelDB.Path)
		if err != nil {
			// Usually the companion holds the lock. Pings still go out; the
			// direct clear reports false without a store.
			slog.Warn("leveldb cache store unavailable", "path", c.LevelDB.Path, "error", err)
			break
		}
		s.closers = append(s.closers, func() { _ = st.Close() })
		stores[BackendKeyValue] = st
	case "redis":
		if _, ok := stores[BackendKeyValue]; ok {
			break
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis cache store unreachable", "addr", c.Redis.Addr, "error", err)
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		stores[BackendKeyValue] = NewRedisStore(rdb)
	case "file":
		if _, ok := stores[BackendFile]; ok {
			break
		}
		stores[BackendFile] = NewFileStore(c.File.Root)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
	return stores, nil
}

func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *Service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Service) Sitemap() SitemapLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Sitemap
}

func (s *Service) Trigger() Trigger { return s.trigger }

// FileLog is nil when no log directory is configured.
func (s *Service) FileLog() *FileLog { return s.fileLog }

// HandleEvent dispatches ev when the trigger accepts it. ok is false when
// the event was filtered out.
func (s *Service) HandleEvent(ctx context.Context, ev PageEvent) (out DispatchOutcome, ok bool) {
	if !s.trigger.ShouldTrigger(ev) {
		return DispatchOutcome{}, false
	}
	return s.Notify(ctx, ev.PageID, ev.PageURL), true
}

// Notify dispatches unconditionally for the given page.
func (s *Service) Notify(ctx context.Context, pageID int64, pageURL string) DispatchOutcome {
	return s.dispatcher.NotifyChange(ctx, ChangeContext{
		PageID:          pageID,
		PageURL:         pageURL,
		SitemapVerified: s.Sitemap().Verified,
	})
}

// Verify re-checks the sitemap location and keeps the result for later
// dispatches.
func (s *Service) Verify(ctx context.Context) (SitemapLocation, error) {
	loc, err := s.verifier.Verify(ctx, s.Sitemap())
	s.mu.Lock()
	s.cfg.Sitemap = loc
	s.mu.Unlock()
	if err != nil {
		slog.Warn("sitemap verification failed", "url", loc.URL, "error", err)
	}
	return loc, err
}

func (s *Service) Invalidate(ctx context.Context) bool {
	return s.invalidator.Invalidate(ctx)
}

func (s *Service) Ping(ctx context.Context, url string, expectedStatus int) PingResult {
	return s.pinger.Ping(ctx, url, expectedStatus)
}
