package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Connection struct {
	Host             string
	FriendlyName     string
	Login            string
	ApiKey           string
	UseHttps         bool
	SessionCookie    string
	SessionExpiresAt int64
}

type Certificate struct {
	ID         int64
	CommonName string
	Csr        string
	PrivateKey string
	Cert       string
	Ca         string
}

type CertificateInstance struct {
	ID            int64
	CertificateID int64
	Host          string
	LocationType  string
	DomainName    string
}

const getConnection = `
SELECT host, friendly_name, login, api_key, use_https, session_cookie, session_expires_at
FROM connections WHERE host = ?1
`

func (q *Queries) GetConnection(ctx context.Context, host string) (Connection, error) {
	row := q.db.QueryRowContext(ctx, getConnection, host)
	var c Connection
	err := row.Scan(
		&c.Host,
		&c.FriendlyName,
		&c.Login,
		&c.ApiKey,
		&c.UseHttps,
		&c.SessionCookie,
		&c.SessionExpiresAt,
	)
	return c, err
}

const listConnections = `
SELECT host, friendly_name, login, api_key, use_https, session_cookie, session_expires_at
FROM connections ORDER BY host
`

func (q *Queries) ListConnections(ctx context.Context) ([]Connection, error) {
	rows, err := q.db.QueryContext(ctx, listConnections)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Connection
	for rows.Next() {
		var c Connection
		err := rows.Scan(
			&c.Host,
			&c.FriendlyName,
			&c.Login,
			&c.ApiKey,
			&c.UseHttps,
			&c.SessionCookie,
			&c.SessionExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type CreateConnectionParams struct {
	Host         string
	FriendlyName string
	Login        string
	ApiKey       string
	UseHttps     bool
}

const createConnection = `
INSERT INTO connections (host, friendly_name, login, api_key, use_https)
VALUES (?1, ?2, ?3, ?4, ?5)
`

func (q *Queries) CreateConnection(ctx context.Context, arg CreateConnectionParams) error {
	_, err := q.db.ExecContext(ctx, createConnection,
		arg.Host,
		arg.FriendlyName,
		arg.Login,
		arg.ApiKey,
		arg.UseHttps,
	)
	return err
}

const deleteConnection = `DELETE FROM connections WHERE host = ?1`

func (q *Queries) DeleteConnection(ctx context.Context, host string) error {
	_, err := q.db.ExecContext(ctx, deleteConnection, host)
	return err
}

type UpdateSessionStateParams struct {
	Host             string
	SessionCookie    string
	SessionExpiresAt int64
}

const updateSessionState = `
UPDATE connections SET session_cookie = ?2, session_expires_at = ?3 WHERE host = ?1
`

func (q *Queries) UpdateSessionState(ctx context.Context, arg UpdateSessionStateParams) error {
	_, err := q.db.ExecContext(ctx, updateSessionState,
		arg.Host,
		arg.SessionCookie,
		arg.SessionExpiresAt,
	)
	return err
}

type FindMatchingCertificateParams struct {
	PrivateKey string
	Csr        string
	Cert       string
	Ca         string
}

// A stored certificate matches incoming material when the private keys are
// equal and every optional field either agrees or is absent on one side.
const findMatchingCertificate = `
SELECT id, common_name, csr, private_key, cert, ca FROM certificates
WHERE private_key = ?1
  AND (?2 = '' OR csr = '' OR csr = ?2)
  AND (?3 = '' OR cert = '' OR cert = ?3)
  AND (?4 = '' OR ca = '' OR ca = ?4)
LIMIT 1
`

func (q *Queries) FindMatchingCertificate(ctx context.Context, arg FindMatchingCertificateParams) (Certificate, error) {
	row := q.db.QueryRowContext(ctx, findMatchingCertificate,
		arg.PrivateKey,
		arg.Csr,
		arg.Cert,
		arg.Ca,
	)
	var c Certificate
	err := row.Scan(&c.ID, &c.CommonName, &c.Csr, &c.PrivateKey, &c.Cert, &c.Ca)
	return c, err
}

type CreateCertificateParams struct {
	CommonName string
	Csr        string
	PrivateKey string
	Cert       string
	Ca         string
}

const createCertificate = `
INSERT INTO certificates (common_name, csr, private_key, cert, ca)
VALUES (?1, ?2, ?3, ?4, ?5)
`

func (q *Queries) CreateCertificate(ctx context.Context, arg CreateCertificateParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createCertificate,
		arg.CommonName,
		arg.Csr,
		arg.PrivateKey,
		arg.Cert,
		arg.Ca,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type UpdateCertificateMaterialParams struct {
	ID         int64
	CommonName string
	Csr        string
	Cert       string
	Ca         string
}

// Fills in fields that are still empty; populated fields are never
// overwritten.
const updateCertificateMaterial = `
UPDATE certificates SET
    common_name = CASE WHEN common_name = '' THEN ?2 ELSE common_name END,
    csr = CASE WHEN csr = '' THEN ?3 ELSE csr END,
    cert = CASE WHEN cert = '' THEN ?4 ELSE cert END,
    ca = CASE WHEN ca = '' THEN ?5 ELSE ca END
WHERE id = ?1
`

func (q *Queries) UpdateCertificateMaterial(ctx context.Context, arg UpdateCertificateMaterialParams) error {
	_, err := q.db.ExecContext(ctx, updateCertificateMaterial,
		arg.ID,
		arg.CommonName,
		arg.Csr,
		arg.Cert,
		arg.Ca,
	)
	return err
}

const getCertificate = `
SELECT id, common_name, csr, private_key, cert, ca FROM certificates WHERE id = ?1
`

func (q *Queries) GetCertificate(ctx context.Context, id int64) (Certificate, error) {
	row := q.db.QueryRowContext(ctx, getCertificate, id)
	var c Certificate
	err := row.Scan(&c.ID, &c.CommonName, &c.Csr, &c.PrivateKey, &c.Cert, &c.Ca)
	return c, err
}

const listCertificates = `
SELECT id, common_name, csr, private_key, cert, ca FROM certificates ORDER BY id
`

func (q *Queries) ListCertificates(ctx context.Context) ([]Certificate, error) {
	rows, err := q.db.QueryContext(ctx, listCertificates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Certificate
	for rows.Next() {
		var c Certificate
		err := rows.Scan(&c.ID, &c.CommonName, &c.Csr, &c.PrivateKey, &c.Cert, &c.Ca)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type CountInstancesParams struct {
	CertificateID int64
	Host          string
	LocationType  string
	DomainName    string
}

const countInstances = `
SELECT COUNT(*) FROM certificate_instances
WHERE certificate_id = ?1 AND host = ?2 AND location_type = ?3 AND domain_name = ?4
`

func (q *Queries) CountInstances(ctx context.Context, arg CountInstancesParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countInstances,
		arg.CertificateID,
		arg.Host,
		arg.LocationType,
		arg.DomainName,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type CreateInstanceParams struct {
	CertificateID int64
	Host          string
	LocationType  string
	DomainName    string
}

const createInstance = `
INSERT INTO certificate_instances (certificate_id, host, location_type, domain_name)
VALUES (?1, ?2, ?3, ?4)
`

func (q *Queries) CreateInstance(ctx context.Context, arg CreateInstanceParams) error {
	_, err := q.db.ExecContext(ctx, createInstance,
		arg.CertificateID,
		arg.Host,
		arg.LocationType,
		arg.DomainName,
	)
	return err
}

const listInstances = `
SELECT id, certificate_id, host, location_type, domain_name
FROM certificate_instances WHERE certificate_id = ?1 ORDER BY id
`

func (q *Queries) ListInstances(ctx context.Context, certificateID int64) ([]CertificateInstance, error) {
	rows, err := q.db.QueryContext(ctx, listInstances, certificateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CertificateInstance
	for rows.Next() {
		var i CertificateInstance
		err := rows.Scan(&i.ID, &i.CertificateID, &i.Host, &i.LocationType, &i.DomainName)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

const deleteInstancesByHost = `DELETE FROM certificate_instances WHERE host = ?1`

func (q *Queries) DeleteInstancesByHost(ctx context.Context, host string) error {
	_, err := q.db.ExecContext(ctx, deleteInstancesByHost, host)
	return err
}

const getOption = `SELECT value FROM options WHERE key = ?1`

func (q *Queries) GetOption(ctx context.Context, key string) (string, error) {
	row := q.db.QueryRowContext(ctx, getOption, key)
	var value string
	err := row.Scan(&value)
	return value, err
}

type SetOptionParams struct {
	Key   string
	Value string
}

const setOption = `
INSERT INTO options (key, value) VALUES (?1, ?2)
ON CONFLICT (key) DO UPDATE SET value = excluded.value
`

func (q *Queries) SetOption(ctx context.Context, arg SetOptionParams) error {
	_, err := q.db.ExecContext(ctx, setOption, arg.Key, arg.Value)
	return err
}
