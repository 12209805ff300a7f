//go:build integration

package rds_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"tagrds/internal/rds"
)

// objectFixtureSchema creates the external objects/tagging/tags catalog
// that RdsBuilder reads but does not own.
const objectFixtureSchema = `
CREATE TABLE objects (
  inode      INTEGER PRIMARY KEY,
  objectname VARCHAR(255) NOT NULL
);
CREATE TABLE tags (
  tag_id    INTEGER PRIMARY KEY,
  tagname   VARCHAR(255) NOT NULL,
  namespace VARCHAR(255),
  key       VARCHAR(255),
  value     VARCHAR(255)
);
CREATE TABLE tagging (
  inode  INTEGER NOT NULL,
  tag_id INTEGER NOT NULL
);
`

type RdsSuite struct {
	suite.Suite
	tmpDir      string
	db          *sql.DB
	catalog     *rds.CatalogStore
	builder     *rds.RdsBuilder
	coordinator *rds.Coordinator
	reader      *rds.Reader
	invalidator *rds.Invalidator
}

func (s *RdsSuite) SetupSuite() {
	var err error
	s.tmpDir, err = os.MkdirTemp("", "rds_integration_test")
	s.Require().NoError(err)

	dbPath := filepath.Join(s.tmpDir, "test.db")
	s.db, err = sql.Open("sqlite3", dbPath)
	s.Require().NoError(err)

	_, err = s.db.Exec(objectFixtureSchema)
	s.Require().NoError(err)

	s.catalog, err = rds.NewCatalogStore(s.db)
	s.Require().NoError(err)
	s.builder = rds.NewRdsBuilder(s.db, s.catalog)
	s.coordinator = rds.NewCoordinator(s.catalog, s.builder)
	s.reader = rds.NewReader(s.db)
	s.invalidator = rds.NewInvalidator(s.catalog)
}

func (s *RdsSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	os.RemoveAll(s.tmpDir)
}

func (s *RdsSuite) SetupTest() {
	for _, table := range []string{"objects", "tags", "tagging", "RDS", "RDS_catalog"} {
		_, err := s.db.Exec("DELETE FROM " + table)
		s.Require().NoError(err)
	}
}

// seedCatalog inserts (inode, objectname, tag_id, tagname) fixture rows and
// a tagging link between each.
func (s *RdsSuite) seedCatalog(rows []struct {
	inode      int64
	objectname string
	tagID      int64
	tagname    string
}) {
	seenObjects := map[int64]bool{}
	seenTags := map[int64]bool{}
	for _, r := range rows {
		if !seenObjects[r.inode] {
			_, err := s.db.Exec(`INSERT INTO objects (inode, objectname) VALUES (?, ?)`, r.inode, r.objectname)
			s.Require().NoError(err)
			seenObjects[r.inode] = true
		}
		if !seenTags[r.tagID] {
			_, err := s.db.Exec(`INSERT INTO tags (tag_id, tagname) VALUES (?, ?)`, r.tagID, r.tagname)
			s.Require().NoError(err)
			seenTags[r.tagID] = true
		}
		_, err := s.db.Exec(`INSERT INTO tagging (inode, tag_id) VALUES (?, ?)`, r.inode, r.tagID)
		s.Require().NoError(err)
	}
}

func (s *RdsSuite) TestSeedIntersectSubtract() {
	type row = struct {
		inode      int64
		objectname string
		tagID      int64
		tagname    string
	}
	s.seedCatalog([]row{
		{1, "beach.jpg", 1, "photo"},
		{1, "beach.jpg", 2, "summer"},
		{2, "city.jpg", 1, "photo"},
		{2, "city.jpg", 3, "blurry"},
		{3, "mountain.jpg", 1, "photo"},
	})

	conj := rds.Conjunction{Atoms: []rds.AtomNode{
		{Atom: rds.ByName("photo")},
		{
			Atom:    rds.ByName("summer"),
			Negated: []rds.NegatedAtom{{Atom: rds.ByName("blurry")}},
		},
	}}

	ctx := context.Background()
	subquery, err := rds.Canonicalize(conj)
	s.Require().NoError(err)

	id, err := s.builder.Build(ctx, conj, subquery)
	s.Require().NoError(err)
	s.NotZero(id)

	// Re-fetching the same subquery must return the same id, not rebuild.
	again, err := s.catalog.FetchID(ctx, subquery, false)
	s.Require().NoError(err)
	s.Equal(id, again)

	loaded, err := s.reader.Load(ctx, rds.Fingerprint{id})
	s.Require().NoError(err)
	s.Require().Len(loaded, 1)
	s.Contains(loaded, "beach.jpg")
}

func (s *RdsSuite) TestPrepare_AllPathReturnsNil() {
	fp, err := s.coordinator.Prepare(context.Background(), nil, true, false)
	s.Require().NoError(err)
	s.Nil(fp)
}

func (s *RdsSuite) TestPrepare_EmptyDisjunctionReturnsNil() {
	fp, err := s.coordinator.Prepare(context.Background(), rds.Disjunction{}, false, false)
	s.Require().NoError(err)
	s.Nil(fp)
}

func (s *RdsSuite) TestPrepare_PreservesDisjunctOrder() {
	type row = struct {
		inode      int64
		objectname string
		tagID      int64
		tagname    string
	}
	s.seedCatalog([]row{
		{10, "a.jpg", 10, "alpha"},
		{11, "b.jpg", 11, "beta"},
	})

	disjunction := rds.Disjunction{
		{Atoms: []rds.AtomNode{{Atom: rds.ByName("beta")}}},
		{Atoms: []rds.AtomNode{{Atom: rds.ByName("alpha")}}},
	}

	fp, err := s.coordinator.Prepare(context.Background(), disjunction, false, false)
	s.Require().NoError(err)
	s.Require().Len(fp, 2)

	betaSubquery, err := rds.Canonicalize(disjunction[0])
	s.Require().NoError(err)
	betaID, err := s.catalog.FetchID(context.Background(), betaSubquery, false)
	s.Require().NoError(err)
	s.Equal(betaID, fp[0])
}

func (s *RdsSuite) TestPrepare_ConcurrentSameSubqueryBuildsExactlyOnce() {
	// The suite's open *sql.DB keeps its own connectionOpener goroutine alive
	// for the whole suite; only goroutines beyond that one count as leaks.
	defer goleak.VerifyNone(s.T(), goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	type row = struct {
		inode      int64
		objectname string
		tagID      int64
		tagname    string
	}
	s.seedCatalog([]row{
		{20, "x.jpg", 20, "gamma"},
	})

	conj := rds.Conjunction{Atoms: []rds.AtomNode{{Atom: rds.ByName("gamma")}}}
	subquery, err := rds.Canonicalize(conj)
	s.Require().NoError(err)

	disjunction := rds.Disjunction{conj}

	g, ctx := errgroup.WithContext(context.Background())
	ids := make([]rds.Fingerprint, 8)
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			fp, err := s.coordinator.Prepare(ctx, disjunction, false, false)
			ids[i] = fp
			return err
		})
	}
	s.Require().NoError(g.Wait())

	for i := 1; i < len(ids); i++ {
		s.Equal(ids[0], ids[i])
	}

	var count int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM RDS_catalog WHERE subquery = ?`, subquery).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *RdsSuite) TestInvalidateThenRebuildExpired() {
	type row = struct {
		inode      int64
		objectname string
		tagID      int64
		tagname    string
	}
	s.seedCatalog([]row{
		{30, "old.jpg", 30, "delta"},
	})

	conj := rds.Conjunction{Atoms: []rds.AtomNode{{Atom: rds.ByName("delta")}}}
	subquery, err := rds.Canonicalize(conj)
	s.Require().NoError(err)

	id, err := s.builder.Build(context.Background(), conj, subquery)
	s.Require().NoError(err)

	s.Require().NoError(s.invalidator.Invalidate(context.Background(), rds.Fingerprint{id}))

	// Without rebuild_expired the stale id is still handed back.
	still, err := s.catalog.FetchID(context.Background(), subquery, false)
	s.Require().NoError(err)
	s.Equal(id, still)

	// With rebuild_expired, the entry is purged, forcing the caller to build fresh.
	gone, err := s.catalog.FetchID(context.Background(), subquery, true)
	s.Require().NoError(err)
	s.Zero(gone)
}

func TestRdsSuite(t *testing.T) {
	suite.Run(t, new(RdsSuite))
}
