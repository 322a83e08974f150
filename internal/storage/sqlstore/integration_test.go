//go:build integration

package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	store     *Store
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	store, err := Open(s.ctx, "postgres", connStr)
	s.Require().NoError(err)
	s.store = store
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.store.db.ExecContext(s.ctx, "DELETE FROM kv")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) TestSetGet() {
	s.Require().NoError(s.store.Set(s.ctx, "accessToken", "t1"))
	s.Require().NoError(s.store.Set(s.ctx, "accessToken", "t2"))

	v, ok, err := s.store.Get(s.ctx, "accessToken")
	s.NoError(err)
	s.True(ok)
	s.Equal("t2", v)
}

func (s *PostgresIntegrationSuite) TestGet_Missing() {
	_, ok, err := s.store.Get(s.ctx, "nothing")
	s.NoError(err)
	s.False(ok)
}

func (s *PostgresIntegrationSuite) TestRemove() {
	s.Require().NoError(s.store.Set(s.ctx, "accessToken", "t"))
	s.Require().NoError(s.store.Set(s.ctx, "accountEmail", "ana@school.edu"))
	s.Require().NoError(s.store.Set(s.ctx, "likedPosts", `["a","b"]`))

	s.Require().NoError(s.store.Remove(s.ctx, "accessToken", "accountEmail"))

	var count int
	s.Require().NoError(s.store.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM kv"))
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestMigrateIsIdempotent() {
	s.NoError(s.store.migrate(s.ctx))
}
