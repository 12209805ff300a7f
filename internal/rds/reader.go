package rds

import (
	"context"
	"database/sql"
	"fmt"

	"tagrds/internal/rdslog"
)

// Reader answers load/contains queries over a previously-prepared
// Fingerprint.
type Reader struct {
	db *sql.DB
}

// NewReader wires a Reader against db.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Load streams every (inode, objectname) row named by fp into a
// name -> handles multimap. A row whose inode already appears under that
// name is skipped — the guard against reasoner-expansion duplication
// spec.md §4.7 calls for.
func (r *Reader) Load(ctx context.Context, fp Fingerprint) (map[string][]FileHandle, error) {
	timer := rdslog.StartTimer(rdslog.CategoryCatalog, "Load")
	defer timer.Stop()

	out := make(map[string][]FileHandle)
	if len(fp) == 0 {
		return out, nil
	}

	placeholders, args := inClause(fp)
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT DISTINCT objectname, inode FROM RDS WHERE rds_id IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("rds: load %s: %w", fp, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var inode int64
		if err := rows.Scan(&name, &inode); err != nil {
			return nil, fmt.Errorf("rds: load %s: scan: %w", fp, err)
		}

		dup := false
		for _, fh := range out[name] {
			if fh.Inode == inode {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out[name] = append(out[name], FileHandle{Inode: inode, Name: name})
	}
	return out, rows.Err()
}

// Contains reports whether objectname exists within fp, optionally
// constrained to a known inode. ok is false when no matching row exists.
func (r *Reader) Contains(ctx context.Context, fp Fingerprint, objectname string, inode *int64) (got int64, ok bool, err error) {
	timer := rdslog.StartTimer(rdslog.CategoryCatalog, "Contains")
	defer timer.Stop()

	placeholders, args := inClause(fp)

	var query string
	var queryArgs []interface{}
	if inode != nil {
		query = fmt.Sprintf(`SELECT inode FROM RDS WHERE objectname = ? AND inode = ? AND rds_id IN (%s)`, placeholders)
		queryArgs = append([]interface{}{objectname, *inode}, args...)
	} else {
		query = fmt.Sprintf(`SELECT inode FROM RDS WHERE objectname = ? AND rds_id IN (%s)`, placeholders)
		queryArgs = append([]interface{}{objectname}, args...)
	}

	row := r.db.QueryRowContext(ctx, query, queryArgs...)
	if scanErr := row.Scan(&got); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("rds: contains %q: %w", objectname, scanErr)
	}
	return got, true, nil
}

// Invalidator marks catalog entries stale so the next rebuild-requesting
// prepare() purges and rematerializes them.
type Invalidator struct {
	catalog *CatalogStore
}

// NewInvalidator wires an Invalidator against catalog.
func NewInvalidator(catalog *CatalogStore) *Invalidator {
	return &Invalidator{catalog: catalog}
}

// Invalidate marks every rds_id in fp expired. Physical deletion happens
// later, when a caller requests a rebuild for a matching subquery.
func (inv *Invalidator) Invalidate(ctx context.Context, fp Fingerprint) error {
	log := rdslog.Get(rdslog.CategoryInvalidate)
	log.Info("invalidating fingerprint=%s", fp)
	return inv.catalog.MarkExpired(ctx, fp)
}

// InvalidateByTag is the reserved, coarse structural invalidation path: it
// deletes catalog entries whose subquery textually contains tag (or
// "namespace/key"). This over-invalidates any subquery whose string
// representation happens to contain the substring — spec.md §4.7/§9
// accepts that as a safe tradeoff for a facility that is optional, not
// part of the required live invalidation path.
func (inv *Invalidator) InvalidateByTag(ctx context.Context, tag string) error {
	log := rdslog.Get(rdslog.CategoryInvalidate)
	log.Info("invalidating by tag substring=%q", tag)
	return inv.catalog.EvictBySubqueryLike(ctx, "%"+tag+"%")
}
