package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/browser")

type Config struct {
	// maximum number of tabs rendering at once
	MaxTabs   int           `json:"max_tabs"`
	Headless  bool          `json:"headless"`
	NoSandbox bool          `json:"no_sandbox"`
	UserAgent string        `json:"user_agent"`
	Timeout   time.Duration `json:"-"`
	// timeout for a single page render, json form in seconds
	TimeoutSeconds int `json:"timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{
		MaxTabs:   4,
		Headless:  true,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		Timeout:   time.Second * 45,
	}
}

// Pool renders pages through a shared headless browser process. Some
// panel pages are assembled entirely by client-side scripting, so a
// plain HTTP fetch of them yields an empty shell; the pool exists to
// bound how many real browser tabs that costs.
type Pool struct {
	config      Config
	browserCtx  context.Context
	browserStop context.CancelFunc
	allocStop   context.CancelFunc
	sem         chan struct{}
}

func NewPool(ctx context.Context, config Config) (*Pool, error) {
	if config.MaxTabs <= 0 {
		return nil, fmt.Errorf("max_tabs must be positive, got %d", config.MaxTabs)
	}
	if config.Timeout == 0 {
		if config.TimeoutSeconds > 0 {
			config.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
		} else {
			config.Timeout = time.Second * 45
		}
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", config.NoSandbox),
		// panel hosts run self-signed certificates
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.UserAgent(config.UserAgent),
	)

	allocCtx, allocStop := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	// fail now rather than on the first real page
	startupCtx, cancel := context.WithTimeout(browserCtx, time.Second*30)
	defer cancel()
	if err := chromedp.Run(startupCtx, chromedp.Navigate("about:blank")); err != nil {
		browserStop()
		allocStop()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	slog.Info("browser pool started", "max_tabs", config.MaxTabs, "headless", config.Headless)

	return &Pool{
		config:      config,
		browserCtx:  browserCtx,
		browserStop: browserStop,
		allocStop:   allocStop,
		sem:         make(chan struct{}, config.MaxTabs),
	}, nil
}

func (p *Pool) Close() {
	p.browserStop()
	p.allocStop()
}

// Render navigates a pooled tab to the url with the extra headers
// attached and returns the rendered outer html. The tab is torn down on
// every exit path.
func (p *Pool) Render(ctx context.Context, url string, headers map[string]string) (string, error) {
	ctx, span := tracer.Start(ctx, "Render")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		span.SetStatus(codes.Error, "cancelled waiting for a tab")
		return "", ctx.Err()
	}
	defer func() { <-p.sem }()

	tabCtx, closeTab := chromedp.NewContext(p.browserCtx)
	defer closeTab()
	// the tab context descends from the browser, not the caller, so
	// propagate caller cancellation by hand
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	tabCtx, cancel := context.WithTimeout(tabCtx, p.config.Timeout)
	defer cancel()

	tasks := chromedp.Tasks{network.Enable()}
	if len(headers) > 0 {
		extra := network.Headers{}
		for k, v := range headers {
			extra[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(extra))
	}
	var html string
	tasks = append(tasks,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html),
	)

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}
