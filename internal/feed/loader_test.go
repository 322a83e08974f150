package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"edublog/internal/domain"
	"edublog/internal/feed/mocks"
)

type LoaderTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	lister *mocks.MockLister
	loader *Loader
	logger *slog.Logger
}

func (s *LoaderTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.lister = mocks.NewMockLister(s.ctrl)
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.loader = NewLoader(s.lister, Config{}, s.logger)
}

func (s *LoaderTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestLoaderTestSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}

func posts(ids ...string) []domain.Post {
	out := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Post{ID: id, Title: "post " + id, Author: "Ana"})
	}
	return out
}

func ids(ps []domain.Post) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func numbered(from, n int) []domain.Post {
	ps := make([]domain.Post, 0, n)
	for i := from; i < from+n; i++ {
		ps = append(ps, domain.Post{ID: fmt.Sprintf("p%02d", i)})
	}
	return ps
}

func (s *LoaderTestSuite) TestNewLoader_InitialState() {
	s.Empty(s.loader.Items())
	s.True(s.loader.HasMore())
	s.Equal(0, s.loader.Page())
	s.False(s.loader.InFlight())
	s.Empty(s.loader.Err())
}

func (s *LoaderTestSuite) TestAppend_SkipsHeldIDs() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A", "B", "C"), nil)
	s.lister.EXPECT().ListPosts(gomock.Any(), 2).Return(posts("C", "D"), nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)

	res, err := s.loader.Next(ctx)
	s.Require().NoError(err)

	s.Equal([]string{"A", "B", "C", "D"}, ids(s.loader.Items()))
	s.Equal(2, res.Fetched)
	s.Equal([]string{"D"}, ids(res.Added))
	s.False(s.loader.HasMore())
	s.Equal(2, s.loader.Page())
	s.False(s.loader.InFlight())
}

func (s *LoaderTestSuite) TestAppend_DuplicateWithinResponse() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A", "B", "A", "B"), nil)

	_, err := s.loader.Fetch(ctx, Append, 1)
	s.Require().NoError(err)

	s.Equal([]string{"A", "B"}, ids(s.loader.Items()))
}

func (s *LoaderTestSuite) TestRestart_ReplacesItems() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A", "B", "C"), nil)
	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("X", "Y"), nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)

	res, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)

	s.Equal([]string{"X", "Y"}, ids(s.loader.Items()))
	s.Equal([]string{"X", "Y"}, ids(res.Added))
	s.Equal(1, s.loader.Page())
}

func (s *LoaderTestSuite) TestRestart_KeepsFirstOfDuplicates() {
	ctx := context.Background()

	fetched := posts("A", "B")
	dup := domain.Post{ID: "A", Title: "second copy"}
	fetched = append(fetched, dup)

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(fetched, nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)

	items := s.loader.Items()
	s.Equal([]string{"A", "B"}, ids(items))
	s.Equal("post A", items[0].Title)
}

func (s *LoaderTestSuite) TestRestart_EmptyResponseClearsItems() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A"), nil)
	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return([]domain.Post{}, nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)
	_, err = s.loader.Refresh(ctx)
	s.Require().NoError(err)

	s.Empty(s.loader.Items())
	s.False(s.loader.HasMore())
}

func (s *LoaderTestSuite) TestHasMore_FullPage() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(numbered(0, PageSize), nil)
	s.lister.EXPECT().ListPosts(gomock.Any(), 2).Return(numbered(PageSize, PageSize-1), nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)
	s.True(s.loader.HasMore())

	_, err = s.loader.Next(ctx)
	s.Require().NoError(err)
	s.False(s.loader.HasMore())
	s.Len(s.loader.Items(), 2*PageSize-1)

	// exhausted feed does not hit the lister again
	res, err := s.loader.Next(ctx)
	s.NoError(err)
	s.Zero(res.Fetched)
}

func (s *LoaderTestSuite) TestHasMore_CustomPageSize() {
	ctx := context.Background()
	loader := NewLoader(s.lister, Config{PageSize: 2}, s.logger)

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A", "B"), nil)

	_, err := loader.Refresh(ctx)
	s.Require().NoError(err)
	s.True(loader.HasMore())
}

func (s *LoaderTestSuite) TestFetch_FailurePreservesItems() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A", "B"), nil)
	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(nil, &domain.APIError{
		Kind: domain.ErrNetwork,
		Err:  errors.New("connection refused"),
	})

	_, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)

	_, err = s.loader.Refresh(ctx)
	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrNetwork)

	s.Equal([]string{"A", "B"}, ids(s.loader.Items()))
	s.Equal("cannot reach server, check your connection", s.loader.Err())
	s.False(s.loader.InFlight())
}

func (s *LoaderTestSuite) TestFetch_SuccessClearsErr() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(nil, &domain.APIError{Kind: domain.ErrServer, Status: 500})
	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A"), nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().Error(err)
	s.Equal("could not load posts", s.loader.Err())

	_, err = s.loader.Refresh(ctx)
	s.Require().NoError(err)
	s.Empty(s.loader.Err())
}

func (s *LoaderTestSuite) TestFetch_DropsOverlappingCall() {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).DoAndReturn(
		func(ctx context.Context, page int) ([]domain.Post, error) {
			close(started)
			<-release
			return posts("A"), nil
		},
	)

	done := make(chan error, 1)
	go func() {
		_, err := s.loader.Refresh(ctx)
		done <- err
	}()

	<-started
	s.True(s.loader.InFlight())

	_, err := s.loader.Refresh(ctx)
	s.ErrorIs(err, ErrInFlight)
	_, err = s.loader.Next(ctx)
	s.ErrorIs(err, ErrInFlight)

	close(release)
	s.NoError(<-done)

	s.False(s.loader.InFlight())
	s.Equal([]string{"A"}, ids(s.loader.Items()))
}

func (s *LoaderTestSuite) TestFetch_GuardReleasedAfterFailure() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(nil, &domain.APIError{Kind: domain.ErrServer, Status: 502})
	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A"), nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().Error(err)
	s.False(s.loader.InFlight())

	_, err = s.loader.Refresh(ctx)
	s.NoError(err)
}

func (s *LoaderTestSuite) TestFetch_SupersedeRestart() {
	ctx := context.Background()
	loader := NewLoader(s.lister, Config{Policy: SupersedeOverlapping}, s.logger)
	started := make(chan struct{})

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).DoAndReturn(
		func(ctx context.Context, page int) ([]domain.Post, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	)
	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("B"), nil)

	done := make(chan error, 1)
	go func() {
		_, err := loader.Refresh(ctx)
		done <- err
	}()

	<-started

	_, err := loader.Refresh(ctx)
	s.Require().NoError(err)

	s.ErrorIs(<-done, ErrSuperseded)
	s.Equal([]string{"B"}, ids(loader.Items()))
	s.Empty(loader.Err())
	s.False(loader.InFlight())
}

func (s *LoaderTestSuite) TestFetch_SupersedeStillDropsAppend() {
	ctx := context.Background()
	loader := NewLoader(s.lister, Config{Policy: SupersedeOverlapping}, s.logger)
	started := make(chan struct{})
	release := make(chan struct{})

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).DoAndReturn(
		func(ctx context.Context, page int) ([]domain.Post, error) {
			close(started)
			<-release
			return posts("A"), nil
		},
	)

	done := make(chan error, 1)
	go func() {
		_, err := loader.Refresh(ctx)
		done <- err
	}()

	<-started

	_, err := loader.Fetch(ctx, Append, 2)
	s.ErrorIs(err, ErrInFlight)

	close(release)
	s.NoError(<-done)
}

func (s *LoaderTestSuite) TestPoll_ReportsNewPosts() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A", "B"), nil)
	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("N", "A", "B"), nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)

	stats, err := s.loader.Poll(ctx)
	s.Require().NoError(err)

	s.Equal(3, stats.Fetched)
	s.Equal(1, stats.New)
	s.Equal([]string{"N"}, ids(stats.Added))
	s.Equal([]string{"A", "B", "N"}, ids(s.loader.Items()))
}

func (s *LoaderTestSuite) TestItems_ReturnsCopy() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return(posts("A"), nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)

	items := s.loader.Items()
	items[0].Title = "changed"

	s.Equal("post A", s.loader.Items()[0].Title)
}

func (s *LoaderTestSuite) TestFilter() {
	held := []domain.Post{
		{ID: "1", Title: "Intro to Go", Body: "types", Author: "Ana"},
		{ID: "2", Title: "Fractions", Body: "math for kids", Author: "Bruno"},
		{ID: "3", Title: "Photosynthesis", Body: "plants", Author: "ana paula"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"blank", "   ", []string{"1", "2", "3"}},
		{"empty", "", []string{"1", "2", "3"}},
		{"title", "go", []string{"1"}},
		{"body", "MATH", []string{"2"}},
		{"author case insensitive", "ANA", []string{"1", "3"}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got := Filter(held, tt.query)
			s.Equal(tt.want, ids(got))
			s.Equal(ids(got), ids(Filter(got, tt.query)))
		})
	}

	s.Equal([]string{"1", "2", "3"}, ids(held))
}

func (s *LoaderTestSuite) TestFilter_KeepsSurroundingSpaces() {
	held := []domain.Post{
		{ID: "1", Title: "Going further", Body: "loops"},
		{ID: "2", Title: "Intro to Go", Body: "types"},
	}

	s.Equal([]string{"2"}, ids(Filter(held, " go")))
	s.Equal([]string{"1", "2"}, ids(Filter(held, "go")))
}

func (s *LoaderTestSuite) TestLoaderFilter_UsesHeldPosts() {
	ctx := context.Background()

	s.lister.EXPECT().ListPosts(gomock.Any(), 1).Return([]domain.Post{
		{ID: "1", Title: "Algebra"},
		{ID: "2", Title: "Biology"},
	}, nil)

	_, err := s.loader.Refresh(ctx)
	s.Require().NoError(err)

	s.Equal([]string{"2"}, ids(s.loader.Filter("bio")))
	s.Len(s.loader.Items(), 2)
}

func (s *LoaderTestSuite) TestParsePolicy() {
	p, err := ParsePolicy("drop")
	s.NoError(err)
	s.Equal(DropOverlapping, p)

	p, err = ParsePolicy("supersede")
	s.NoError(err)
	s.Equal(SupersedeOverlapping, p)

	_, err = ParsePolicy("queue")
	s.Error(err)
}
