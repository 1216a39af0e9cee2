package plesk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"sslmanager-backend/lib/certutil"
	"sslmanager-backend/lib/plesk"
	"sslmanager-backend/services/plesk/db"
)

// Location identifies where on a remote host a certificate was seen
// installed.
type Location struct {
	Host         string
	LocationType string
	DomainName   string
}

const LocationDomain = "domain"

// Importer reconciles scraped certificate material into the local
// store. Two scrapes describe the same certificate when their private
// keys agree and no other field both sides have disagrees; matching
// merges the sides together, filling in fields the stored record was
// missing. Writes are serialized so matching stays deterministic.
type Importer struct {
	db  *sql.DB
	qry *db.Queries
	mu  sync.Mutex
}

func NewImporter(database *sql.DB) *Importer {
	return &Importer{
		db:  database,
		qry: db.New(database),
	}
}

func normalizeMaterial(m plesk.Material) plesk.Material {
	return plesk.Material{
		CSR:        strings.TrimSpace(m.CSR),
		PrivateKey: strings.TrimSpace(m.PrivateKey),
		Cert:       strings.TrimSpace(m.Cert),
		CA:         strings.TrimSpace(m.CA),
	}
}

func commonName(ctx context.Context, csr, cert string) string {
	name, err := certutil.CommonName(csr, cert)
	if err != nil {
		slog.WarnContext(ctx, "could not parse certificate material for a common name", "err", err)
		return ""
	}
	return name
}

// Record stores one sighting of certificate material at a location and
// returns the id of the certificate record it was reconciled into.
// Recording the same sighting twice changes nothing.
func (im *Importer) Record(ctx context.Context, loc Location, material plesk.Material) (int64, error) {
	material = normalizeMaterial(material)
	if material.PrivateKey == "" {
		return 0, fmt.Errorf("certificate material at %s/%s has no private key", loc.Host, loc.DomainName)
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	tx, err := im.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	qry := im.qry.WithTx(tx)

	id, err := im.reconcile(ctx, qry, material)
	if err != nil {
		return 0, err
	}

	count, err := qry.CountInstances(ctx, db.CountInstancesParams{
		CertificateID: id,
		Host:          loc.Host,
		LocationType:  loc.LocationType,
		DomainName:    loc.DomainName,
	})
	if err != nil {
		return 0, err
	}
	if count == 0 {
		err = qry.CreateInstance(ctx, db.CreateInstanceParams{
			CertificateID: id,
			Host:          loc.Host,
			LocationType:  loc.LocationType,
			DomainName:    loc.DomainName,
		})
		if err != nil {
			return 0, err
		}
	}

	return id, tx.Commit()
}

func (im *Importer) reconcile(ctx context.Context, qry *db.Queries, material plesk.Material) (int64, error) {
	row, err := qry.FindMatchingCertificate(ctx, db.FindMatchingCertificateParams{
		PrivateKey: material.PrivateKey,
		Csr:        material.CSR,
		Cert:       material.Cert,
		Ca:         material.CA,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return qry.CreateCertificate(ctx, db.CreateCertificateParams{
			CommonName: commonName(ctx, material.CSR, material.Cert),
			Csr:        material.CSR,
			PrivateKey: material.PrivateKey,
			Cert:       material.Cert,
			Ca:         material.CA,
		})
	}
	if err != nil {
		return 0, err
	}

	var name string
	if row.CommonName == "" {
		csr := row.Csr
		if csr == "" {
			csr = material.CSR
		}
		cert := row.Cert
		if cert == "" {
			cert = material.Cert
		}
		name = commonName(ctx, csr, cert)
	}
	err = qry.UpdateCertificateMaterial(ctx, db.UpdateCertificateMaterialParams{
		ID:         row.ID,
		CommonName: name,
		Csr:        material.CSR,
		Cert:       material.Cert,
		Ca:         material.CA,
	})
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}
