package sitemapsubmit

import "strings"

type EventKind string

const (
	EventPublished   EventKind = "published"
	EventUnpublished EventKind = "unpublished"
	EventSaved       EventKind = "saved"
	EventMoved       EventKind = "moved"
	EventRestored    EventKind = "restored"
	EventDeleted     EventKind = "deleted"
)

// PageEvent is a page lifecycle notification from the host CMS.
type PageEvent struct {
	Kind           EventKind `json:"kind"`
	PageID         int64     `json:"page_id"`
	PageURL        string    `json:"page_url"`
	Template       string    `json:"template"`
	SystemTemplate bool      `json:"system_template"`
	Unpublished    bool      `json:"unpublished"`
}

// Trigger decides which page events cause a sitemap submission.
type Trigger struct {
	Debug             bool
	SubmitWhenDebug   bool
	ExcludedTemplates []string
}

func NewTrigger(cfg *Config) Trigger {
	return Trigger{
		Debug:             cfg.Debug,
		SubmitWhenDebug:   cfg.SubmitWhenDebug,
		ExcludedTemplates: cfg.ExcludedTemplates,
	}
}

// Enabled is false while the host runs in debug mode, unless submitting in
// debug mode was asked for.
func (t Trigger) Enabled() bool {
	return !t.Debug || t.SubmitWhenDebug
}

func (t Trigger) ShouldTrigger(ev PageEvent) bool {
	if !t.Enabled() || ev.SystemTemplate || t.excluded(ev.Template) {
		return false
	}
	switch ev.Kind {
	case EventPublished, EventUnpublished:
		return true
	case EventSaved, EventMoved, EventRestored, EventDeleted:
		return !ev.Unpublished
	default:
		return false
	}
}

func (t Trigger) excluded(template string) bool {
	template = strings.TrimSpace(template)
	for _, ex := range t.ExcludedTemplates {
		if strings.EqualFold(strings.TrimSpace(ex), template) {
			return true
		}
	}
	return false
}
