package plesk

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"

	"sslmanager-backend/lib/plesk"
	"sslmanager-backend/services/plesk/db"

	"golang.org/x/sync/singleflight"
)

// Registry hands out one verified API client per known host. Building a
// client involves a round trip to the remote host, so concurrent
// requests for the same host are coalesced and the result is cached
// until the host is evicted.
type Registry struct {
	qry *db.Queries

	group singleflight.Group

	mu      sync.Mutex
	clients map[string]*plesk.Client

	// maps a host to the base url of its XML API; nil derives the
	// default https endpoint
	endpoint func(host string) string
}

func NewRegistry(qry *db.Queries) *Registry {
	return &Registry{
		qry:     qry,
		clients: make(map[string]*plesk.Client),
	}
}

// Client returns the cached API client for host, building and
// verifying one from the stored connection record on first use.
func (r *Registry) Client(ctx context.Context, host string) (*plesk.Client, error) {
	r.mu.Lock()
	client, ok := r.clients[host]
	r.mu.Unlock()
	if ok {
		return client, nil
	}

	value, err, _ := r.group.Do(host, func() (any, error) {
		return r.build(ctx, host)
	})
	if err != nil {
		return nil, err
	}
	return value.(*plesk.Client), nil
}

func (r *Registry) build(ctx context.Context, host string) (*plesk.Client, error) {
	r.mu.Lock()
	client, ok := r.clients[host]
	r.mu.Unlock()
	if ok {
		return client, nil
	}

	row, err := r.qry.GetConnection(ctx, host)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "connection", Key: host}
	}
	if err != nil {
		return nil, err
	}

	opts := plesk.ClientOptions{
		Host:        row.Host,
		ApiKey:      row.ApiKey,
		InsecureTLS: true,
	}
	if r.endpoint != nil {
		opts.BaseURL = r.endpoint(host)
	}
	client, err = plesk.NewClient(opts)
	if err != nil {
		return nil, err
	}
	err = plesk.VerifyConnection(ctx, client)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "verified connection to remote host", "host", host)

	r.mu.Lock()
	r.clients[host] = client
	r.mu.Unlock()

	return client, nil
}

// Evict drops the cached client for host. The next Client call builds
// and verifies a fresh one.
func (r *Registry) Evict(host string) {
	r.mu.Lock()
	delete(r.clients, host)
	r.mu.Unlock()
}
