package plesk

import (
	"context"
	"fmt"
	"strings"

	"sslmanager-backend/lib/htmlutil"
	"sslmanager-backend/lib/plesk"
	"sslmanager-backend/services/plesk/db"

	"github.com/PuerkitoBio/goquery"
)

// Renderer turns a url into the fully rendered HTML of its page. The
// panel builds its pages with javascript, so plain HTTP fetches are
// not enough; production uses a headless browser pool.
type Renderer interface {
	Render(ctx context.Context, url string, headers map[string]string) (string, error)
}

func scrapeBaseURL(host string, useHttps bool) string {
	if useHttps {
		return fmt.Sprintf("https://%s:%d", host, plesk.HTTPSPort)
	}
	return fmt.Sprintf("http://%s:%d", host, plesk.HTTPPort)
}

func sessionCookieName(useHttps bool) string {
	if useHttps {
		return "PLESKSESSID"
	}
	return "PLESKSESSID_INSECURE"
}

const (
	certificateListTableSelector = "#ssl-certificate-list-table"
	certificateListSelector      = "#ssl-certificate-list-table tbody tr td a"

	// panel placeholder for a certificate component that was never
	// uploaded
	missingComponentText = "The component is missing."
)

var materialSelectors = []struct {
	selector string
	assign   func(*plesk.Material, string)
}{
	{"#infoCertificate-content-area", func(m *plesk.Material, v string) { m.Cert = v }},
	{"#infoCaCertificate-content-area", func(m *plesk.Material, v string) { m.CA = v }},
	{"#infoCsr-content-area", func(m *plesk.Material, v string) { m.CSR = v }},
	{"#infoPrivateKey-content-area", func(m *plesk.Material, v string) { m.PrivateKey = v }},
}

// Scraper extracts certificate material from panel pages. Material is
// only visible in the web UI, never over the XML API, which is the
// whole reason this service drives a browser.
type Scraper struct {
	sessions *SessionManager
	renderer Renderer
}

func NewScraper(sessions *SessionManager, renderer Renderer) *Scraper {
	return &Scraper{
		sessions: sessions,
		renderer: renderer,
	}
}

// FetchPage renders a panel page at path with a valid session cookie
// attached and parses the result.
func (s *Scraper) FetchPage(ctx context.Context, conn db.Connection, path string) (*goquery.Document, error) {
	cookie, err := s.sessions.Cookie(ctx, conn.Host)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Render(ctx, scrapeBaseURL(conn.Host, conn.UseHttps)+path, map[string]string{
		"Cookie": sessionCookieName(conn.UseHttps) + "=" + cookie,
	})
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// DomainCertificate returns the material of the certificate assigned
// to domain, along with the certificate's panel name. An empty name
// means no certificate is assigned, which is not an error.
func (s *Scraper) DomainCertificate(ctx context.Context, client *plesk.Client, conn db.Connection, domain plesk.Domain) (plesk.Material, string, error) {
	site, err := client.Site().Get(ctx, plesk.SiteByName(domain.Name))
	if err != nil {
		return plesk.Material{}, "", err
	}
	if site.CertificateName == "" {
		return plesk.Material{}, "", nil
	}

	detailPath, err := s.certificateDetailPath(ctx, conn, site.ID, site.CertificateName)
	if err != nil {
		return plesk.Material{}, "", err
	}
	material, err := s.Material(ctx, conn, detailPath)
	if err != nil {
		return plesk.Material{}, "", err
	}
	return material, site.CertificateName, nil
}

// certificateDetailPath locates the detail-page link for certName,
// first in the site's own certificate list, then in the server-wide
// pool.
func (s *Scraper) certificateDetailPath(ctx context.Context, conn db.Connection, siteID int64, certName string) (string, error) {
	pages := []string{
		fmt.Sprintf("/smb/ssl-certificate/list/id/%d", siteID),
		"/admin/ssl-certificate/list",
	}
	for _, page := range pages {
		doc, err := s.FetchPage(ctx, conn, page)
		if err != nil {
			return "", err
		}
		href, err := findCertificateLink(conn.Host, page, doc, certName)
		if err != nil {
			return "", err
		}
		if href != "" {
			return href, nil
		}
	}
	return "", &ScrapeError{
		Host:   conn.Host,
		Page:   pages[len(pages)-1],
		Detail: fmt.Sprintf("certificate %q is not listed", certName),
	}
}

func findCertificateLink(host, page string, doc *goquery.Document, certName string) (string, error) {
	// A list table with no rows is normal: a domain without its own
	// certificates renders it empty when the assigned certificate lives
	// in the server pool. Only a missing table means the page shape is
	// wrong.
	if doc.Find(certificateListTableSelector).Length() == 0 {
		return "", &ScrapeError{
			Host:   host,
			Page:   page,
			Detail: "certificate list table not found",
		}
	}

	var href string
	doc.Find(certificateListSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if htmlutil.NormalizedText(sel) != certName {
			return true
		}
		href, _ = sel.Attr("href")
		return false
	})
	return href, nil
}

// Material reads the four component regions off a certificate detail
// page. A region carrying the panel's missing-component placeholder
// yields an empty field; a region absent from the page entirely means
// the layout changed and is reported as a ScrapeError.
func (s *Scraper) Material(ctx context.Context, conn db.Connection, detailPath string) (plesk.Material, error) {
	doc, err := s.FetchPage(ctx, conn, detailPath)
	if err != nil {
		return plesk.Material{}, err
	}

	var material plesk.Material
	for _, region := range materialSelectors {
		sel := doc.Find(region.selector)
		if sel.Length() == 0 {
			return plesk.Material{}, &ScrapeError{
				Host:   conn.Host,
				Page:   detailPath,
				Detail: fmt.Sprintf("region %s not found", region.selector),
			}
		}
		text := htmlutil.RawText(sel)
		if strings.Contains(text, missingComponentText) {
			continue
		}
		region.assign(&material, strings.TrimSpace(text))
	}
	return material, nil
}
