package plesk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"sslmanager-backend/lib/plesk"
	"sslmanager-backend/services/plesk/db"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/plesk")

// Service manages connections to remote hosts and imports the
// certificates installed on them into the local store.
type Service struct {
	db  *sql.DB
	qry *db.Queries

	registry *Registry
	sessions *SessionManager
	scraper  *Scraper
	importer *Importer

	// maps a host to the base url of its XML API; nil derives the
	// default https endpoint
	endpoint func(host string) string
}

func NewService(database *sql.DB, renderer Renderer) *Service {
	qry := db.New(database)
	registry := NewRegistry(qry)
	sessions := NewSessionManager(qry, registry, renderer)
	return &Service{
		db:       database,
		qry:      qry,
		registry: registry,
		sessions: sessions,
		scraper:  NewScraper(sessions, renderer),
		importer: NewImporter(database),
	}
}

type AddHostRequest struct {
	Host         string
	FriendlyName string
	Login        string
	Password     string
	UseHttps     bool
}

// AddHost verifies the given panel credentials against the remote
// host, trades them for a dedicated API key and stores the connection.
// The password is only used for this exchange and is never persisted.
// A first import runs immediately; its failure does not undo the add.
func (s *Service) AddHost(ctx context.Context, req AddHostRequest) error {
	ctx, span := tracer.Start(ctx, "AddHost")
	defer span.End()

	_, err := s.qry.GetConnection(ctx, req.Host)
	if err == nil {
		return &ConflictError{Resource: "connection", Key: req.Host}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	opts := plesk.ClientOptions{
		Host: req.Host,
		Credentials: &plesk.Credentials{
			Login:    req.Login,
			Password: req.Password,
		},
		InsecureTLS: true,
	}
	if s.endpoint != nil {
		opts.BaseURL = s.endpoint(req.Host)
	}
	client, err := plesk.NewClient(opts)
	if err != nil {
		return err
	}
	err = plesk.VerifyConnection(ctx, client)
	if err != nil {
		return err
	}

	ip, err := sourceIPFor(req.Host, plesk.HTTPSPort)
	if err != nil {
		return err
	}
	key, err := client.SecretKey().Create(ctx, plesk.CreateKeyOptions{
		IPAddress:   ip,
		Description: fmt.Sprintf("sslmanager access key (%s)", req.FriendlyName),
		Login:       req.Login,
	})
	if err != nil {
		return err
	}
	client.UseApiKey(key)

	err = s.qry.CreateConnection(ctx, db.CreateConnectionParams{
		Host:         req.Host,
		FriendlyName: req.FriendlyName,
		Login:        req.Login,
		ApiKey:       key,
		UseHttps:     req.UseHttps,
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "added remote host", "host", req.Host, "name", req.FriendlyName)

	_, err = s.ImportHost(ctx, req.Host)
	if err != nil {
		slog.WarnContext(ctx, "initial import failed", "host", req.Host, "err", err)
	}
	return nil
}

// RemoveHost deletes the connection record for host along with the
// certificate sightings attributed to it, and revokes the API key on
// the remote side. Revocation is best effort: an unreachable host does
// not block removal.
func (s *Service) RemoveHost(ctx context.Context, host string) error {
	ctx, span := tracer.Start(ctx, "RemoveHost")
	defer span.End()

	row, err := s.qry.GetConnection(ctx, host)
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Resource: "connection", Key: host}
	}
	if err != nil {
		return err
	}

	client, err := s.registry.Client(ctx, host)
	if err == nil {
		err = client.SecretKey().Delete(ctx, row.ApiKey)
	}
	if err != nil {
		slog.WarnContext(ctx, "could not revoke api key on remote host", "host", host, "err", err)
	}

	err = s.sessions.Invalidate(ctx, host)
	if err != nil {
		return err
	}
	err = s.qry.DeleteInstancesByHost(ctx, host)
	if err != nil {
		return err
	}
	err = s.qry.DeleteConnection(ctx, host)
	if err != nil {
		return err
	}
	s.registry.Evict(host)

	slog.InfoContext(ctx, "removed remote host", "host", host)
	return nil
}

func (s *Service) ListHosts(ctx context.Context) ([]db.Connection, error) {
	return s.qry.ListConnections(ctx)
}

// TestConnection round-trips the stored API key against the remote
// host.
func (s *Service) TestConnection(ctx context.Context, host string) error {
	client, err := s.registry.Client(ctx, host)
	if err != nil {
		return err
	}
	return plesk.VerifyConnection(ctx, client)
}

// ListKeys lists the API keys known to the remote host.
func (s *Service) ListKeys(ctx context.Context, host string) ([]plesk.KeyInfo, error) {
	client, err := s.registry.Client(ctx, host)
	if err != nil {
		return nil, err
	}
	return client.SecretKey().Info(ctx, "")
}

// ImportStats summarizes one import run over a host.
type ImportStats struct {
	// domains examined, aliases excluded
	Domains int
	// domains whose certificate material was recorded
	Imported int
	// domains skipped over a scrape or reconcile failure
	Failed int
}

// ImportHost walks every domain on host, scrapes the certificate
// assigned to each and reconciles the material into the store. Domains
// are processed one at a time; a failing domain is logged and skipped
// so one broken page cannot hide the rest of the host.
func (s *Service) ImportHost(ctx context.Context, host string) (ImportStats, error) {
	ctx, span := tracer.Start(ctx, "ImportHost")
	defer span.End()

	var stats ImportStats

	row, err := s.qry.GetConnection(ctx, host)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, &NotFoundError{Resource: "connection", Key: host}
	}
	if err != nil {
		return stats, err
	}
	client, err := s.registry.Client(ctx, host)
	if err != nil {
		return stats, err
	}
	info, err := client.Server().Get(ctx)
	if err != nil {
		return stats, err
	}

	for _, domain := range info.Domains {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		// aliases share their parent domain's hosting and would only
		// duplicate sightings; other domain kinds still carry their own
		// certificate assignment
		if domain.Type == "alias" {
			continue
		}
		stats.Domains++

		material, certName, err := s.scraper.DomainCertificate(ctx, client, row, domain)
		if err != nil {
			var scrapeErr *ScrapeError
			if !errors.As(err, &scrapeErr) {
				return stats, err
			}
			slog.WarnContext(ctx, "skipping domain, page did not scrape",
				"host", host, "domain", domain.Name, "err", err)
			stats.Failed++
			continue
		}
		if certName == "" {
			slog.DebugContext(ctx, "domain has no certificate assigned",
				"host", host, "domain", domain.Name)
			continue
		}

		_, err = s.importer.Record(ctx, Location{
			Host:         host,
			LocationType: LocationDomain,
			DomainName:   domain.Name,
		}, material)
		if err != nil {
			slog.WarnContext(ctx, "skipping domain, material did not reconcile",
				"host", host, "domain", domain.Name, "err", err)
			stats.Failed++
			continue
		}
		stats.Imported++
	}

	slog.InfoContext(ctx, "imported host",
		"host", host,
		"domains", stats.Domains,
		"imported", stats.Imported,
		"failed", stats.Failed,
	)
	return stats, nil
}

func (s *Service) ListCertificates(ctx context.Context) ([]db.Certificate, error) {
	return s.qry.ListCertificates(ctx)
}

func (s *Service) ListInstances(ctx context.Context, certificateID int64) ([]db.CertificateInstance, error) {
	return s.qry.ListInstances(ctx, certificateID)
}

// GetOption reads a persisted service-level setting.
func (s *Service) GetOption(ctx context.Context, key string) (string, error) {
	value, err := s.qry.GetOption(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &NotFoundError{Resource: "option", Key: key}
	}
	return value, err
}

// SetOption writes a persisted service-level setting.
func (s *Service) SetOption(ctx context.Context, key, value string) error {
	return s.qry.SetOption(ctx, db.SetOptionParams{Key: key, Value: value})
}
