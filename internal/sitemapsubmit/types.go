package sitemapsubmit

import "strings"

// SitemapPlaceholder is replaced with the sitemap URL in endpoint templates.
const SitemapPlaceholder = "%{SITEMAP_URL}"

// sitemapPlaceholderAlt is accepted as an alias of SitemapPlaceholder.
const sitemapPlaceholderAlt = "%SITEMAP_URL%"

// LogChannel is the activity log channel every dispatch writes to.
const LogChannel = "sitemap-submit"

type Endpoint struct {
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url" validate:"required"`
}

// placeholderCount counts both placeholder spellings in the template.
func (e Endpoint) placeholderCount() int {
	return strings.Count(e.URL, SitemapPlaceholder) + strings.Count(e.URL, sitemapPlaceholderAlt)
}

// Resolve substitutes the sitemap URL into the template. The sitemap URL is
// inserted verbatim.
func (e Endpoint) Resolve(sitemapURL string) string {
	if strings.Contains(e.URL, SitemapPlaceholder) {
		return strings.Replace(e.URL, SitemapPlaceholder, sitemapURL, 1)
	}
	return strings.Replace(e.URL, sitemapPlaceholderAlt, sitemapURL, 1)
}

type SitemapLocation struct {
	URL             string `yaml:"url" json:"url"`
	Verified        bool   `yaml:"verified" json:"verified"`
	LastVerifiedURL string `yaml:"lastVerifiedUrl" json:"last_verified_url"`
}

type PingResult struct {
	Success    bool   `json:"success"`
	HTTPStatus int    `json:"http_status"` // 0 for transport errors
	Body       string `json:"-"`

	// ErrorMessage is set iff Success is false.
	ErrorMessage string `json:"error_message,omitempty"`
}

type EndpointResult struct {
	Endpoint string     `json:"endpoint"`
	URL      string     `json:"url"`
	Result   PingResult `json:"result"`
}

type DispatchOutcome struct {
	DispatchID   string           `json:"dispatch_id"`
	Skipped      bool             `json:"skipped"`
	CacheCleared bool             `json:"cache_cleared"`
	Results      []EndpointResult `json:"results"`
	Message      string           `json:"message"`

	// Warning is the user-facing notice when nothing was submitted and
	// warnings are enabled.
	Warning string `json:"warning,omitempty"`
}

// ChangeContext is what the dispatcher needs to know about a content change.
type ChangeContext struct {
	PageID          int64
	PageURL         string
	SitemapVerified bool
}

type CacheBackendKind string

const (
	BackendKeyValue CacheBackendKind = "kv"
	BackendFile     CacheBackendKind = "file"
)

// CacheModuleDescriptor describes the companion cache module as the registry
// sees it right now.
type CacheModuleDescriptor struct {
	Name      string
	Installed bool

	// NativeURL is the companion's own purge endpoint, empty when it exposes
	// no native invalidation.
	NativeURL string

	Backend CacheBackendKind
	Key     string
	Path    string
}

func (d CacheModuleDescriptor) HasNativeInvalidation() bool {
	return d.NativeURL != ""
}
