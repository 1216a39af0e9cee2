package plesk

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"sslmanager-backend/lib/telemetry"
)

const (
	agentPath = "/enterprise/control/agent.php"

	// HTTPSPort and HTTPPort are the ports the remote control panel
	// serves on.
	HTTPSPort = 8443
	HTTPPort  = 8880
)

// Credentials is a one-time login/password pair, used on first contact
// with a host before a dedicated API key has been issued.
type Credentials struct {
	Login    string
	Password string
}

// OperatorName identifies one family of remote operations. The set is
// closed: operator accessors go through typed constants, not free-form
// strings.
type OperatorName string

const (
	OperatorSecretKey   OperatorName = "secret_key"
	OperatorCertificate OperatorName = "certificate"
	OperatorServer      OperatorName = "server"
	OperatorSession     OperatorName = "session"
	OperatorSite        OperatorName = "site"
	OperatorWebspace    OperatorName = "webspace"
)

type ClientOptions struct {
	Host string
	// exactly one of ApiKey/Credentials must be set
	ApiKey      string
	Credentials *Credentials
	// self-signed panel certificates are the norm on these hosts
	InsecureTLS bool
	// overrides the derived https endpoint, for panels reachable only
	// through a tunnel or on a nonstandard address
	BaseURL string
}

// Client speaks the XML API of one remote host. It is safe for
// concurrent use; operators are stateless facades cached per client.
type Client struct {
	Host string

	apiKey string
	creds  *Credentials
	http   *resty.Client

	mu        sync.Mutex
	operators map[OperatorName]any
}

func NewClient(opts ClientOptions) (*Client, error) {
	if (opts.ApiKey == "") == (opts.Credentials == nil) {
		return nil, fmt.Errorf("exactly one of api key or login credentials must be provided")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s:%d", opts.Host, HTTPSPort)
	}

	http := resty.New()
	http.SetBaseURL(baseURL)
	http.SetHeader("Content-Type", "text/xml")
	http.SetTimeout(time.Second * 30)
	if opts.InsecureTLS {
		http.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	telemetry.InstrumentResty(http, "plesk/http")

	return &Client{
		Host:      opts.Host,
		apiKey:    opts.ApiKey,
		creds:     opts.Credentials,
		http:      http,
		operators: map[OperatorName]any{},
	}, nil
}

// UseApiKey switches the client from one-time login credentials to a
// dedicated API key for all subsequent requests.
func (c *Client) UseApiKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
	c.creds = nil
}

func (c *Client) authHeaders() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	// exactly one auth shape is ever attached
	if c.apiKey != "" {
		return map[string]string{"KEY": c.apiKey}
	}
	return map[string]string{
		"HTTP_AUTH_LOGIN":  c.creds.Login,
		"HTTP_AUTH_PASSWD": c.creds.Password,
	}
}

func (c *Client) operator(name OperatorName, build func() any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.operators[name]
	if !ok {
		op = build()
		c.operators[name] = op
	}
	return op
}

func (c *Client) SecretKey() *SecretKeyOperator {
	return c.operator(OperatorSecretKey, func() any {
		return &SecretKeyOperator{operator{name: OperatorSecretKey, client: c}}
	}).(*SecretKeyOperator)
}

func (c *Client) Certificate() *CertificateOperator {
	return c.operator(OperatorCertificate, func() any {
		return &CertificateOperator{operator{name: OperatorCertificate, client: c}}
	}).(*CertificateOperator)
}

func (c *Client) Server() *ServerOperator {
	return c.operator(OperatorServer, func() any {
		return &ServerOperator{operator{name: OperatorServer, client: c}}
	}).(*ServerOperator)
}

func (c *Client) Session() *SessionOperator {
	return c.operator(OperatorSession, func() any {
		return &SessionOperator{operator{name: OperatorSession, client: c}}
	}).(*SessionOperator)
}

func (c *Client) Site() *SiteOperator {
	return c.operator(OperatorSite, func() any {
		return &SiteOperator{operator{name: OperatorSite, client: c}}
	}).(*SiteOperator)
}

func (c *Client) Webspace() *WebspaceOperator {
	return c.operator(OperatorWebspace, func() any {
		return &WebspaceOperator{operator{name: OperatorWebspace, client: c}}
	}).(*WebspaceOperator)
}
