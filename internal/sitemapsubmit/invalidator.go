package sitemapsubmit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

var ErrModuleNotInstalled = errors.New("module not installed")

// ModuleRegistry answers questions about companion modules.
type ModuleRegistry interface {
	Descriptor(ctx context.Context, name string) (CacheModuleDescriptor, error)
}

// Capability is a resolved way of clearing the companion's sitemap cache.
type Capability interface {
	Clear(ctx context.Context) bool
}

// NativeInvalidation defers to the companion module's own invalidation.
type NativeInvalidation struct {
	Call func(ctx context.Context) bool
}

func (n NativeInvalidation) Clear(ctx context.Context) bool {
	if n.Call == nil {
		return false
	}
	return n.Call(ctx)
}

// DirectInvalidation removes the cached sitemap from the store itself.
type DirectInvalidation struct {
	Store CacheStore
	Key   string
}

// Clear reports true when the entry is gone afterwards, including when it
// was never there. Errors and panics from the store yield false.
func (d DirectInvalidation) Clear(ctx context.Context) (ok bool) {
	if d.Store == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cache delete panicked", "key", d.Key, "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	exists, err := d.Store.Exists(ctx, d.Key)
	if err != nil {
		slog.Warn("cache lookup failed", "key", d.Key, "error", err)
		return false
	}
	if !exists {
		return true
	}
	if err := d.Store.Delete(ctx, d.Key); err != nil {
		slog.Warn("cache delete failed", "key", d.Key, "error", err)
		return false
	}
	return true
}

// CapabilityResolver picks the capability to use for one invalidation.
// ok is false when there is nothing to invalidate.
type CapabilityResolver interface {
	Resolve(ctx context.Context) (c Capability, ok bool)
}

// RegistryResolver resolves a capability from the module registry each time
// it is asked, so module installs and upgrades are picked up without restart.
type RegistryResolver struct {
	registry ModuleRegistry
	module   string
	client   HTTPDoer
	stores   map[CacheBackendKind]CacheStore
}

func NewRegistryResolver(registry ModuleRegistry, module string, client HTTPDoer, stores map[CacheBackendKind]CacheStore) *RegistryResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &RegistryResolver{registry: registry, module: module, client: client, stores: stores}
}

func (r *RegistryResolver) Resolve(ctx context.Context) (Capability, bool) {
	desc, err := r.registry.Descriptor(ctx, r.module)
	if err != nil {
		if !errors.Is(err, ErrModuleNotInstalled) {
			slog.Warn("module registry lookup failed", "module", r.module, "error", err)
		}
		return nil, false
	}
	if !desc.Installed {
		return nil, false
	}
	if desc.HasNativeInvalidation() {
		return NativeInvalidation{Call: httpPurge(r.client, desc.NativeURL)}, true
	}

	key := desc.Key
	if desc.Backend == BackendFile {
		key = desc.Path
	}
	return DirectInvalidation{Store: r.stores[desc.Backend], Key: key}, true
}

// httpPurge calls a companion purge endpoint; any 2xx counts as cleared.
func httpPurge(client HTTPDoer, url string) func(context.Context) bool {
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			slog.Warn("native cache purge failed", "url", url, "error", err)
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode >= 200 && resp.StatusCode < 300
	}
}

type CacheInvalidator struct {
	resolver CapabilityResolver
	metrics  *Metrics
}

func NewCacheInvalidator(resolver CapabilityResolver, metrics *Metrics) *CacheInvalidator {
	return &CacheInvalidator{resolver: resolver, metrics: metrics}
}

// Invalidate clears the companion's sitemap cache. It returns false when the
// companion is absent or the clear failed.
func (c *CacheInvalidator) Invalidate(ctx context.Context) bool {
	capability, ok := c.resolver.Resolve(ctx)
	if !ok {
		c.metrics.observeInvalidation("absent", false)
		return false
	}
	cleared := capability.Clear(ctx)

	path := "direct"
	if _, native := capability.(NativeInvalidation); native {
		path = "native"
	}
	c.metrics.observeInvalidation(path, cleared)
	return cleared
}

// StaticRegistry is a ModuleRegistry over a fixed set of descriptors, as
// read from configuration.
type StaticRegistry struct {
	mu      sync.RWMutex
	modules map[string]CacheModuleDescriptor
}

func NewStaticRegistry(descs ...CacheModuleDescriptor) *StaticRegistry {
	r := &StaticRegistry{modules: make(map[string]CacheModuleDescriptor, len(descs))}
	for _, d := range descs {
		r.modules[d.Name] = d
	}
	return r
}

func (r *StaticRegistry) set(d CacheModuleDescriptor) {
	r.mu.Lock()
	r.modules[d.Name] = d
	r.mu.Unlock()
}

func (r *StaticRegistry) Descriptor(_ context.Context, name string) (CacheModuleDescriptor, error) {
	r.mu.RLock()
	d, ok := r.modules[name]
	r.mu.RUnlock()
	if !ok || !d.Installed {
		return CacheModuleDescriptor{Name: name}, fmt.Errorf("%s: %w", name, ErrModuleNotInstalled)
	}
	return d, nil
}

// CacheDescriptor builds the companion descriptor described by cfg.
func (cfg *Config) CacheDescriptor() CacheModuleDescriptor {
	d := CacheModuleDescriptor{
		Name:      cfg.Cache.Module,
		Installed: cfg.Cache.Installed,
		NativeURL: cfg.Cache.NativeURL,
		Backend:   BackendKeyValue,
		Key:       cfg.Cache.Key,
	}
	if cfg.Cache.Backend == "file" {
		d.Backend = BackendFile
		d.Key = ""
		d.Path = cfg.Cache.Key
	}
	return d
}
