package sitemapsubmit

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// VerifyError explains why a sitemap location was rejected.
type VerifyError struct {
	URL        string
	HTTPStatus int
	Message    string
}

func (e *VerifyError) Error() string {
	return e.Message
}

type sitemapDoc struct {
	XMLName  xml.Name
	URLs     []string `xml:"url>loc"`
	Sitemaps []string `xml:"sitemap>loc"`
}

// Verifier checks that a configured sitemap location is reachable, and
// optionally that it serves a sitemap document.
type Verifier struct {
	pinger        EndpointPinger
	client        HTTPDoer
	siteRoot      string
	checkDocument bool
	validate      *validator.Validate
}

func NewVerifier(pinger EndpointPinger, client HTTPDoer, siteRoot string, checkDocument bool) *Verifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Verifier{
		pinger:        pinger,
		client:        client,
		siteRoot:      siteRoot,
		checkDocument: checkDocument,
		validate:      validator.New(),
	}
}

// Verify returns loc with Verified and LastVerifiedURL updated. A location
// that was already verified at the same URL is returned without a request.
func (v *Verifier) Verify(ctx context.Context, loc SitemapLocation) (SitemapLocation, error) {
	loc.URL = strings.TrimSpace(loc.URL)
	if loc.URL == "" {
		loc.URL = DefaultSitemapURL(v.siteRoot)
	}
	if loc.URL != "" && loc.URL == loc.LastVerifiedURL && loc.Verified {
		return loc, nil
	}

	if loc.URL == "" || v.validate.Var(loc.URL, "required,url") != nil || !hasHTTPScheme(loc.URL) {
		loc.Verified = false
		return loc, &VerifyError{URL: loc.URL, Message: "The provided sitemap.xml location URL format is invalid"}
	}

	res := v.pinger.Ping(ctx, loc.URL, http.StatusOK)
	if !res.Success {
		loc.Verified = false
		return loc, &VerifyError{
			URL:        loc.URL,
			HTTPStatus: res.HTTPStatus,
			Message:    fmt.Sprintf("URL check for %s failed. HTTP Status: %d", loc.URL, res.HTTPStatus),
		}
	}

	if v.checkDocument {
		if _, err := v.fetchSitemap(ctx, loc.URL); err != nil {
			loc.Verified = false
			return loc, &VerifyError{
				URL:        loc.URL,
				HTTPStatus: res.HTTPStatus,
				Message:    fmt.Sprintf("URL check for %s failed. Not a sitemap document: %v", loc.URL, err),
			}
		}
	}

	loc.Verified = true
	loc.LastVerifiedURL = loc.URL
	return loc, nil
}

func hasHTTPScheme(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func (v *Verifier) fetchSitemap(ctx context.Context, sitemapURL string) (sitemapDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return sitemapDoc{}, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return sitemapDoc{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return sitemapDoc{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return sitemapDoc{}, err
	}
	return parseSitemap(sitemapURL, body)
}

// parseSitemap accepts urlset and sitemapindex documents, gzipped or not.
func parseSitemap(sitemapURL string, body []byte) (sitemapDoc, error) {
	gz := strings.HasSuffix(strings.ToLower(sitemapURL), ".gz") || (len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b)
	if gz {
		if r, err := gzip.NewReader(bytes.NewReader(body)); err == nil {
			if unzipped, err := io.ReadAll(r); err == nil {
				body = unzipped
			}
			_ = r.Close()
		}
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return sitemapDoc{}, err
	}
	switch doc.XMLName.Local {
	case "urlset", "sitemapindex":
	default:
		return sitemapDoc{}, fmt.Errorf("unexpected root element <%s>", doc.XMLName.Local)
	}
	for i := range doc.URLs {
		doc.URLs[i] = strings.TrimSpace(doc.URLs[i])
	}
	for i := range doc.Sitemaps {
		doc.Sitemaps[i] = strings.TrimSpace(doc.Sitemaps[i])
	}
	return doc, nil
}
