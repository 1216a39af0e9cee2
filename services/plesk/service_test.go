package plesk

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"sslmanager-backend/lib/testutil"
	"sslmanager-backend/services/plesk/db"

	"github.com/stretchr/testify/require"
)

const testHost = "127.0.0.1"

const verifyOkResponse = `<?xml version="1.0" encoding="utf-8"?><packet><server><get><result><status>ok</status></result></get></server></packet>`

const serverInfoResponse = `<?xml version="1.0" encoding="utf-8"?><packet><server><get><result><status>ok</status><session_setup><login_timeout>30</login_timeout></session_setup><admin-domain-list><domain><id>1</id><name>example.com</name><type>domain</type></domain><domain><id>2</id><name>www.example.com</name><type>alias</type></domain></admin-domain-list></result></get></server></packet>`

const createSessionResponse = `<?xml version="1.0" encoding="utf-8"?><packet><server><create_session><result><status>ok</status><id>sess-abc</id></result></create_session></server></packet>`

const emptySessionListResponse = `<?xml version="1.0" encoding="utf-8"?><packet><session><get><result><status>ok</status></result></get></session></packet>`

const siteGetResponse = `<?xml version="1.0" encoding="utf-8"?><packet><site><get><result><status>ok</status><id>1</id><data><gen_info><name>example.com</name></gen_info><hosting><vrt_hst><property><name>certificate_name</name><value>example cert</value></property></vrt_hst></hosting></data></result></get></site></packet>`

const keyCreateResponse = `<?xml version="1.0" encoding="utf-8"?><packet><secret_key><create><result><status>ok</status><key>key-123</key></result></create></secret_key></packet>`

const keyDeleteResponse = `<?xml version="1.0" encoding="utf-8"?><packet><secret_key><delete><result><status>ok</status></result></delete></secret_key></packet>`

func sessionListResponse(id string, idle time.Time) string {
	return `<?xml version="1.0" encoding="utf-8"?><packet><session><get><result><status>ok</status><session><id>` +
		id + `</id><type>admin</type><idle>` + idle.UTC().Format("2006-01-02 15:04:05") +
		`</idle></session></result></get></session></packet>`
}

// fakePanel stands in for a remote host's XML API, dispatching canned
// responses on the operator and operation found in the request body.
type fakePanel struct {
	srv *httptest.Server

	mu     sync.Mutex
	bodies []string
	// response for session:get, defaults to an empty session list
	sessions string
	// response for server:get
	serverInfo string
}

func newFakePanel(t *testing.T) *fakePanel {
	f := &fakePanel{sessions: emptySessionListResponse, serverInfo: serverInfoResponse}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body := string(raw)
		f.mu.Lock()
		f.bodies = append(f.bodies, body)
		sessions := f.sessions
		serverInfo := f.serverInfo
		f.mu.Unlock()

		switch {
		case strings.Contains(body, "<stat>"):
			io.WriteString(w, verifyOkResponse)
		case strings.Contains(body, "<server><get>"):
			io.WriteString(w, serverInfo)
		case strings.Contains(body, "<create_session>"):
			io.WriteString(w, createSessionResponse)
		case strings.Contains(body, "<session><get>"):
			io.WriteString(w, sessions)
		case strings.Contains(body, "<site><get>"):
			io.WriteString(w, siteGetResponse)
		case strings.Contains(body, "<secret_key><create>"):
			io.WriteString(w, keyCreateResponse)
		case strings.Contains(body, "<secret_key><delete>"):
			io.WriteString(w, keyDeleteResponse)
		default:
			t.Errorf("fake panel got unexpected request: %s", body)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePanel) setSessions(response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = response
}

func (f *fakePanel) setServerInfo(response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serverInfo = response
}

func (f *fakePanel) count(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, body := range f.bodies {
		if strings.Contains(body, substr) {
			n++
		}
	}
	return n
}

type renderVisit struct {
	URL    string
	Cookie string
}

// fakeRenderer serves canned page HTML by url path and records every
// visit.
type fakeRenderer struct {
	mu     sync.Mutex
	pages  map[string]string
	visits []renderVisit
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pages: map[string]string{}}
}

func (f *fakeRenderer) Render(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visits = append(f.visits, renderVisit{URL: rawURL, Cookie: headers["Cookie"]})

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if page, ok := f.pages[u.Path]; ok {
		return page, nil
	}
	return "<html><body></body></html>", nil
}

func (f *fakeRenderer) visited() []renderVisit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]renderVisit{}, f.visits...)
}

const certListHTML = `<html><body><table id="ssl-certificate-list-table"><tbody><tr><td><a href="/smb/ssl-certificate/edit/id/1/certificate/5">example cert</a></td></tr></tbody></table></body></html>`

const certDetailHTML = `<html><body>
<div id="infoCertificate-content-area">cert-material</div>
<div id="infoCaCertificate-content-area">The component is missing.</div>
<div id="infoCsr-content-area">The component is missing.</div>
<div id="infoPrivateKey-content-area">key-material</div>
</body></html>`

func setupServiceTest(t *testing.T) (*Service, *db.Queries, *fakePanel, *fakeRenderer) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/plesk",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	panel := newFakePanel(t)
	renderer := newFakeRenderer()

	svc := NewService(result.DB, renderer)
	svc.endpoint = func(string) string { return panel.srv.URL }
	svc.registry.endpoint = svc.endpoint

	return svc, db.New(result.DB), panel, renderer
}

func TestAddHostImportAndRemove(t *testing.T) {
	svc, qry, panel, renderer := setupServiceTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	renderer.pages["/smb/ssl-certificate/list/id/1"] = certListHTML
	renderer.pages["/smb/ssl-certificate/edit/id/1/certificate/5"] = certDetailHTML

	err := svc.AddHost(ctx, AddHostRequest{
		Host:         testHost,
		FriendlyName: "staging panel",
		Login:        "admin",
		Password:     "hunter2",
		UseHttps:     true,
	})
	require.NoError(t, err)

	conn, err := qry.GetConnection(ctx, testHost)
	require.NoError(t, err)
	require.Equal(t, "key-123", conn.ApiKey)
	require.Equal(t, "staging panel", conn.FriendlyName)
	require.Equal(t, "sess-abc", conn.SessionCookie)

	// the password is traded for a key and never stored
	rows, err := qry.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	certs, err := qry.ListCertificates(ctx)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	require.Equal(t, "key-material", certs[0].PrivateKey)
	require.Equal(t, "cert-material", certs[0].Cert)
	require.Empty(t, certs[0].Csr)

	instances, err := qry.ListInstances(ctx, certs[0].ID)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	require.Equal(t, testHost, instances[0].Host)
	require.Equal(t, LocationDomain, instances[0].LocationType)
	require.Equal(t, "example.com", instances[0].DomainName)

	var sawInit, sawList bool
	for _, visit := range renderer.visited() {
		if strings.Contains(visit.URL, "rsession_init.php?PLESKSESSID=sess-abc") {
			sawInit = true
		}
		if strings.Contains(visit.URL, "/smb/ssl-certificate/list/id/1") {
			sawList = true
			require.Equal(t, "PLESKSESSID=sess-abc", visit.Cookie)
		}
	}
	require.True(t, sawInit, "session initialization url was never visited")
	require.True(t, sawList, "certificate list page was never visited")

	// a second import reconciles into the same records
	stats, err := svc.ImportHost(ctx, testHost)
	require.NoError(t, err)
	require.Equal(t, ImportStats{Domains: 1, Imported: 1}, stats)

	certs, err = qry.ListCertificates(ctx)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	instances, err = qry.ListInstances(ctx, certs[0].ID)
	require.NoError(t, err)
	require.Len(t, instances, 1)

	// a single session login served every page
	require.Equal(t, 1, panel.count("<create_session>"))

	err = svc.RemoveHost(ctx, testHost)
	require.NoError(t, err)
	require.Equal(t, 1, panel.count("<secret_key><delete>"))

	_, err = qry.GetConnection(ctx, testHost)
	require.ErrorIs(t, err, sql.ErrNoRows)
	instances, err = qry.ListInstances(ctx, certs[0].ID)
	require.NoError(t, err)
	require.Empty(t, instances)
}

func TestAddHostRejectsDuplicates(t *testing.T) {
	svc, qry, _, _ := setupServiceTest(t)
	ctx := context.Background()

	err := qry.CreateConnection(ctx, db.CreateConnectionParams{
		Host:         testHost,
		FriendlyName: "existing",
		Login:        "admin",
		ApiKey:       "key-000",
		UseHttps:     true,
	})
	require.NoError(t, err)

	err = svc.AddHost(ctx, AddHostRequest{
		Host:         testHost,
		FriendlyName: "again",
		Login:        "admin",
		Password:     "hunter2",
		UseHttps:     true,
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestImportHostSkipsOnlyAliases(t *testing.T) {
	svc, qry, panel, renderer := setupServiceTest(t)
	ctx := context.Background()

	// panels report hosting kinds beyond plain "domain"; only aliases
	// are skipped
	panel.setServerInfo(`<?xml version="1.0" encoding="utf-8"?><packet><server><get><result><status>ok</status><session_setup><login_timeout>30</login_timeout></session_setup><admin-domain-list><domain><id>5</id><name>shop.example.com</name><type>vhost</type></domain><domain><id>6</id><name>www.example.com</name><type>alias</type></domain></admin-domain-list></result></get></server></packet>`)
	renderer.pages["/smb/ssl-certificate/list/id/1"] = certListHTML
	renderer.pages["/smb/ssl-certificate/edit/id/1/certificate/5"] = certDetailHTML

	err := qry.CreateConnection(ctx, db.CreateConnectionParams{
		Host:         testHost,
		FriendlyName: "staging panel",
		Login:        "admin",
		ApiKey:       "key-123",
		UseHttps:     true,
	})
	require.NoError(t, err)

	stats, err := svc.ImportHost(ctx, testHost)
	require.NoError(t, err)
	require.Equal(t, ImportStats{Domains: 1, Imported: 1}, stats)

	certs, err := qry.ListCertificates(ctx)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	instances, err := qry.ListInstances(ctx, certs[0].ID)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	require.Equal(t, "shop.example.com", instances[0].DomainName)
}

func TestImportHostUnknownHost(t *testing.T) {
	svc, _, _, _ := setupServiceTest(t)

	_, err := svc.ImportHost(context.Background(), "nowhere.invalid")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRemoveHostUnknownHost(t *testing.T) {
	svc, _, _, _ := setupServiceTest(t)

	err := svc.RemoveHost(context.Background(), "nowhere.invalid")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestOptions(t *testing.T) {
	svc, _, _, _ := setupServiceTest(t)
	ctx := context.Background()

	_, err := svc.GetOption(ctx, "theme")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)

	require.NoError(t, svc.SetOption(ctx, "theme", "dark"))
	value, err := svc.GetOption(ctx, "theme")
	require.NoError(t, err)
	require.Equal(t, "dark", value)

	require.NoError(t, svc.SetOption(ctx, "theme", "light"))
	value, err = svc.GetOption(ctx, "theme")
	require.NoError(t, err)
	require.Equal(t, "light", value)
}

func TestErrorMessages(t *testing.T) {
	notFound := &NotFoundError{Resource: "connection", Key: "a.example.com"}
	require.Equal(t, `connection "a.example.com" not found`, notFound.Error())

	conflict := &ConflictError{Resource: "connection", Key: "a.example.com"}
	require.Equal(t, `connection "a.example.com" already exists`, conflict.Error())

	scrape := &ScrapeError{Host: "a.example.com", Page: "/admin/ssl-certificate/list", Detail: "table not found"}
	require.Equal(t, "scrape a.example.com/admin/ssl-certificate/list: table not found", scrape.Error())
}
