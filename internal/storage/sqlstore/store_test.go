package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SQLiteStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func (s *SQLiteStoreSuite) SetupTest() {
	s.ctx = context.Background()

	store, err := Open(s.ctx, "sqlite", ":memory:")
	s.Require().NoError(err)
	s.store = store
}

func (s *SQLiteStoreSuite) TearDownTest() {
	s.store.Close()
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) TestGet_Missing() {
	v, ok, err := s.store.Get(s.ctx, "accessToken")
	s.NoError(err)
	s.False(ok)
	s.Empty(v)
}

func (s *SQLiteStoreSuite) TestSet_Upserts() {
	s.Require().NoError(s.store.Set(s.ctx, "accessToken", "t1"))
	s.Require().NoError(s.store.Set(s.ctx, "accessToken", "t2"))

	v, ok, err := s.store.Get(s.ctx, "accessToken")
	s.NoError(err)
	s.True(ok)
	s.Equal("t2", v)

	var count int
	s.Require().NoError(s.store.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM kv"))
	s.Equal(1, count)
}

func (s *SQLiteStoreSuite) TestRemove() {
	s.Require().NoError(s.store.Set(s.ctx, "accessToken", "t"))
	s.Require().NoError(s.store.Set(s.ctx, "accountName", "Ana"))
	s.Require().NoError(s.store.Set(s.ctx, "likedPosts", `["a"]`))

	s.Require().NoError(s.store.Remove(s.ctx, "accessToken", "accountName", "absent"))
	s.Require().NoError(s.store.Remove(s.ctx))

	_, ok, err := s.store.Get(s.ctx, "accessToken")
	s.NoError(err)
	s.False(ok)

	v, ok, err := s.store.Get(s.ctx, "likedPosts")
	s.NoError(err)
	s.True(ok)
	s.Equal(`["a"]`, v)
}

func TestOpen_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := Open(ctx, "sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "accessToken", "persisted"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := Open(ctx, "sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "accessToken")
	if err != nil || !ok || v != "persisted" {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
}
