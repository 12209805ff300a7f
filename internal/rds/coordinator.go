package rds

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"tagrds/internal/rdslog"
)

// Coordinator orchestrates the conjunctions of one disjunction: per-subquery
// lookup-or-build, assembled into the disjunction's fingerprint.
//
// Unlike the single process-wide mutex spec.md describes, Coordinator is a
// value owned by the caller (so multiple mounts or test cases can coexist
// in one process, per the "global mutex -> arena-scoped coordinator"
// design note) and guards each distinct subquery with its own lock, so two
// disjuncts that share no subquery never contend. Two concurrent prepares
// for the *same* subquery still serialize around fetch-or-build, preserving
// the "exactly one INSERT INTO RDS_catalog" contract.
type Coordinator struct {
	catalog *CatalogStore
	builder *RdsBuilder

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewCoordinator wires a Coordinator against a catalog and builder sharing
// the same backing store.
func NewCoordinator(catalog *CatalogStore, builder *RdsBuilder) *Coordinator {
	return &Coordinator{
		catalog: catalog,
		builder: builder,
		locks:   make(map[string]*sync.Mutex),
	}
}

// subqueryLock returns the mutex serializing fetch-or-build attempts for
// subquery, creating it on first use. Locks are never removed: they are
// small and bounded by the number of distinct subqueries ever seen, which
// mirrors how many RDS_catalog rows exist.
func (co *Coordinator) subqueryLock(subquery string) *sync.Mutex {
	co.locksMu.Lock()
	defer co.locksMu.Unlock()
	l, ok := co.locks[subquery]
	if !ok {
		l = &sync.Mutex{}
		co.locks[subquery] = l
	}
	return l
}

// Prepare resolves disjunction into a Fingerprint. A nil Fingerprint with a
// nil error means "no fingerprint" (isAllPath set, or an empty
// disjunction) — the caller is expected to bypass the RDS entirely in that
// case, per spec.md §4.6. A non-nil error means some subquery's
// fetch-or-build failed; any partial fingerprint must be discarded.
func (co *Coordinator) Prepare(ctx context.Context, disjunction Disjunction, isAllPath, rebuildExpired bool) (Fingerprint, error) {
	timer := rdslog.StartTimer(rdslog.CategoryCoordinator, "Prepare")
	defer timer.Stop()

	if isAllPath || len(disjunction) == 0 {
		return nil, nil
	}

	ids := make([]RdsID, len(disjunction))
	g, gctx := errgroup.WithContext(ctx)

	for i, conj := range disjunction {
		i, conj := i, conj
		g.Go(func() error {
			subquery, err := Canonicalize(conj)
			if err != nil {
				return err
			}

			lock := co.subqueryLock(subquery)
			lock.Lock()
			defer lock.Unlock()

			id, err := co.catalog.FetchID(gctx, subquery, rebuildExpired)
			if err != nil {
				return err
			}
			if id == 0 {
				id, err = co.builder.Build(gctx, conj, subquery)
				if err != nil {
					return err
				}
			}
			ids[i] = id
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Reassemble in original disjunct order, not completion order — the
	// fingerprint's ordering contract does not depend on which goroutine
	// finished first.
	return Fingerprint(ids), nil
}
