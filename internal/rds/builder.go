package rds

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tagrds/internal/rdslog"
)

// objectJoin is the join shape every phase filters through: the external
// object/tag/tagging catalog this module reads but does not own.
const objectJoin = `objects
  JOIN tagging ON tagging.inode = objects.inode
  JOIN tags    ON tags.tag_id   = tagging.tag_id`

// RdsBuilder executes the four-phase materialization that turns one
// Conjunction into rows in RDS.
type RdsBuilder struct {
	db      *sql.DB
	catalog *CatalogStore
}

// NewRdsBuilder wires a builder against db and the catalog it registers
// new entries in.
func NewRdsBuilder(db *sql.DB, catalog *CatalogStore) *RdsBuilder {
	return &RdsBuilder{db: db, catalog: catalog}
}

// Build materializes conj's matching (inode, objectname) rows into RDS
// under a freshly registered rds_id and returns that id.
//
// Phase 1 registers the catalog row. Phase 2 seeds RDS from the head atom
// (OR'd with its reasoner-expanded related alternatives). Phase 3
// intersects every remaining AND member in. Phase 4 subtracts every
// negated member. Phases 3 and 4 are independent statements per atom —
// there is no batching, matching spec.md's description of the original.
func (b *RdsBuilder) Build(ctx context.Context, conj Conjunction, subquery string) (RdsID, error) {
	buildID := uuid.NewString()
	timer := rdslog.StartTimer(rdslog.CategoryBuilder, "Build")
	defer timer.Stop()
	log := rdslog.Get(rdslog.CategoryBuilder)
	log.Debug("[%s] build start subquery=%q", buildID, subquery)

	// Phase 1 — Register.
	id, err := b.catalog.Register(ctx, subquery)
	if err != nil {
		return 0, err
	}
	log.Debug("[%s] phase1 registered rds_id=%d", buildID, id)

	head, ok := conj.Head()
	if !ok {
		// No head: nothing to seed. Returning the bare id matches the
		// source's behavior for a conjunction with no renderable atom.
		return id, nil
	}

	// Phase 2 — Seed.
	if err := b.seed(ctx, id, head); err != nil {
		return 0, err
	}
	log.Debug("[%s] phase2 seeded", buildID)

	// Phase 3 — Intersect with remaining ANDs.
	for _, node := range conj.Rest() {
		if err := b.intersect(ctx, id, node); err != nil {
			return 0, err
		}
	}
	log.Debug("[%s] phase3 intersected %d atom(s)", buildID, len(conj.Rest()))

	// Phase 4 — Subtract negations. Every atom in the main chain is
	// walked, including the head, and each of its negated members is
	// subtracted independently.
	negCount := 0
	for _, node := range conj.Atoms {
		for _, neg := range node.Negated {
			if err := b.subtract(ctx, id, neg); err != nil {
				return 0, err
			}
			negCount++
		}
	}
	log.Debug("[%s] phase4 subtracted %d negation(s)", buildID, negCount)

	return id, nil
}

func (b *RdsBuilder) seed(ctx context.Context, id RdsID, head AtomNode) error {
	where, err := orGroup(head.Atom, head.Related)
	if err != nil {
		return err
	}
	sqlText := fmt.Sprintf(`
INSERT INTO RDS
SELECT ?, objects.inode, objects.objectname
  FROM %s
 WHERE %s`, objectJoin, where.SQL)

	args := append([]interface{}{int64(id)}, where.Args...)
	if _, err := b.db.ExecContext(ctx, sqlText, args...); err != nil {
		return fmt.Errorf("rds: seed rds_id=%d: %w", id, err)
	}
	return nil
}

func (b *RdsBuilder) intersect(ctx context.Context, id RdsID, node AtomNode) error {
	where, err := orGroup(node.Atom, node.Related)
	if err != nil {
		return err
	}
	sqlText := fmt.Sprintf(`
DELETE FROM RDS
 WHERE rds_id = ?
   AND inode NOT IN (
      SELECT objects.inode FROM %s
       WHERE %s
   )`, objectJoin, where.SQL)

	args := append([]interface{}{int64(id)}, where.Args...)
	if _, err := b.db.ExecContext(ctx, sqlText, args...); err != nil {
		return fmt.Errorf("rds: intersect rds_id=%d: %w", id, err)
	}
	return nil
}

func (b *RdsBuilder) subtract(ctx context.Context, id RdsID, neg NegatedAtom) error {
	where, err := orGroup(neg.Atom, neg.Related)
	if err != nil {
		return err
	}
	sqlText := fmt.Sprintf(`
DELETE FROM RDS
 WHERE rds_id = ?
   AND inode IN (
      SELECT objects.inode FROM %s
       WHERE %s
   )`, objectJoin, where.SQL)

	args := append([]interface{}{int64(id)}, where.Args...)
	if _, err := b.db.ExecContext(ctx, sqlText, args...); err != nil {
		return fmt.Errorf("rds: subtract rds_id=%d: %w", id, err)
	}
	return nil
}
