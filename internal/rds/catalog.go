package rds

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tagrds/internal/rdslog"
)

// catalogSchema is bit-exact with spec.md §6.
const catalogSchema = `
CREATE TABLE IF NOT EXISTS RDS_catalog (
  rds_id   INTEGER PRIMARY KEY AUTOINCREMENT,
  subquery VARCHAR(1024) NOT NULL,
  created  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  expired  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS RDS (
  rds_id     INTEGER NOT NULL,
  inode      INTEGER NOT NULL,
  objectname VARCHAR(255) NOT NULL
);
`

// CatalogStore persists RDS_catalog and RDS over a *sql.DB. It is the Go
// realization of spec.md §4.4's SqlExecutor capability: every call binds
// parameters rather than interpolating them into SQL text.
type CatalogStore struct {
	db *sql.DB
}

// NewCatalogStore opens the schema against db, creating the two tables if
// they do not already exist.
func NewCatalogStore(db *sql.DB) (*CatalogStore, error) {
	if _, err := db.Exec(catalogSchema); err != nil {
		return nil, fmt.Errorf("rds: create schema: %w", err)
	}
	return &CatalogStore{db: db}, nil
}

// FetchID looks up the catalog id for subquery. If rebuildExpired is set,
// any existing RDS rows and catalog row for this subquery are purged first
// — unconditionally, whether or not the entry was actually marked expired —
// so the caller always gets a clean rebuild. Returns 0 when no RDS exists
// yet (build it).
func (c *CatalogStore) FetchID(ctx context.Context, subquery string, rebuildExpired bool) (RdsID, error) {
	timer := rdslog.StartTimer(rdslog.CategoryCatalog, "FetchID")
	defer timer.Stop()

	if rebuildExpired {
		if err := c.purgeBySubquery(ctx, subquery); err != nil {
			return 0, err
		}
	}

	var id int64
	err := c.db.QueryRowContext(ctx,
		`SELECT rds_id FROM RDS_catalog WHERE subquery = ?`, subquery,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rds: fetch_id %q: %w", subquery, err)
	}
	return RdsID(id), nil
}

// purgeBySubquery deletes RDS rows for the catalog entry matching subquery,
// then the catalog entry itself. No-ops cleanly if nothing matches.
func (c *CatalogStore) purgeBySubquery(ctx context.Context, subquery string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM RDS WHERE rds_id IN (SELECT rds_id FROM RDS_catalog WHERE subquery = ?)`, subquery,
	)
	if err != nil {
		return fmt.Errorf("rds: purge RDS rows for %q: %w", subquery, err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM RDS_catalog WHERE subquery = ?`, subquery); err != nil {
		return fmt.Errorf("rds: purge catalog row for %q: %w", subquery, err)
	}
	return nil
}

// Register inserts a new catalog row for subquery and returns its id. This
// is Phase 1 of RdsBuilder.build.
func (c *CatalogStore) Register(ctx context.Context, subquery string) (RdsID, error) {
	timer := rdslog.StartTimer(rdslog.CategoryCatalog, "Register")
	defer timer.Stop()

	result, err := c.db.ExecContext(ctx,
		`INSERT INTO RDS_catalog (subquery) VALUES (?)`, subquery,
	)
	if err != nil {
		return 0, fmt.Errorf("rds: register %q: %w", subquery, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("rds: register %q: last insert id: %w", subquery, err)
	}
	return RdsID(id), nil
}

// MarkExpired flags every rds_id in fp as expired. Physical deletion is
// deferred to the next FetchID(rebuildExpired=true) call for that subquery.
func (c *CatalogStore) MarkExpired(ctx context.Context, fp Fingerprint) error {
	if len(fp) == 0 {
		return nil
	}
	placeholders, args := inClause(fp)
	_, err := c.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE RDS_catalog SET expired = 1 WHERE rds_id IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return fmt.Errorf("rds: mark_expired %s: %w", fp, err)
	}
	return nil
}

// EvictBySubqueryLike deletes catalog entries whose subquery matches
// pattern. This is the reserved, coarse tag-level invalidation facility
// from spec.md §4.7/§9: dead in the live invalidation path (which marks
// entries expired and waits for rebuild), kept only for administrative use.
func (c *CatalogStore) EvictBySubqueryLike(ctx context.Context, pattern string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM RDS_catalog WHERE subquery LIKE ?`, pattern)
	if err != nil {
		return fmt.Errorf("rds: evict_by_subquery_like %q: %w", pattern, err)
	}
	return nil
}

// inClause renders "?, ?, ..." for an IN clause alongside its bound args.
func inClause(ids []RdsID) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = int64(id)
	}
	return strings.Join(placeholders, ","), args
}
