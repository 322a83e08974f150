// Package feed keeps the post listing shown to the user: a de-duplicated,
// order-preserving collection filled from a paginated remote source.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"edublog/internal/domain"
)

// PageSize is the page length at which another page is assumed to exist.
const PageSize = 10

type Mode int

const (
	// Restart replaces the held posts with the fetched page.
	Restart Mode = iota
	// Append adds fetched posts whose IDs are not held yet.
	Append
)

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "restart"
}

// Policy decides what happens to a fetch issued while another is in flight.
type Policy int

const (
	// DropOverlapping ignores the new call.
	DropOverlapping Policy = iota
	// SupersedeOverlapping lets a Restart cancel the in-flight fetch and take
	// its place. An overlapping Append is still dropped.
	SupersedeOverlapping
)

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "drop":
		return DropOverlapping, nil
	case "supersede":
		return SupersedeOverlapping, nil
	default:
		return 0, fmt.Errorf("unknown overlap policy %q", s)
	}
}

var (
	ErrInFlight   = errors.New("fetch already in flight")
	ErrSuperseded = errors.New("fetch superseded by a newer restart")
)

type Config struct {
	PageSize int
	Policy   Policy
}

// Result describes the effect of one settled fetch.
type Result struct {
	Fetched int
	Added   []domain.Post // posts not held before this fetch
}

// Loader is safe for concurrent use. At most one fetch is outstanding at a
// time; see Policy for what happens to the others.
type Loader struct {
	lister   Lister
	pageSize int
	policy   Policy
	logger   *slog.Logger

	mu       sync.Mutex
	items    []domain.Post
	page     int
	hasMore  bool
	inFlight bool
	errMsg   string
	gen      uint64
	cancel   context.CancelFunc
}

func NewLoader(lister Lister, cfg Config, logger *slog.Logger) *Loader {
	if cfg.PageSize <= 0 {
		cfg.PageSize = PageSize
	}

	return &Loader{
		lister:   lister,
		pageSize: cfg.PageSize,
		policy:   cfg.Policy,
		logger:   logger.With("component", "feed"),
		hasMore:  true,
	}
}

// Fetch reads page cursor and merges it according to mode. A call made while
// another fetch is in flight returns ErrInFlight (or, for a superseded fetch,
// ErrSuperseded) and leaves the state untouched. On failure the held posts are
// kept and Err reports a user-facing message.
func (l *Loader) Fetch(ctx context.Context, mode Mode, cursor int) (Result, error) {
	fetchCtx, gen, err := l.begin(ctx, mode)
	if err != nil {
		return Result{}, err
	}

	settled := false
	defer func() {
		if !settled {
			l.release(gen)
		}
	}()

	posts, err := l.lister.ListPosts(fetchCtx, cursor)

	settled = true
	return l.settle(gen, mode, cursor, posts, err)
}

// Refresh reloads the first page, replacing everything held.
func (l *Loader) Refresh(ctx context.Context) (Result, error) {
	return l.Fetch(ctx, Restart, 1)
}

// Next appends the page after the last one loaded. It does nothing once a
// short page has been seen.
func (l *Loader) Next(ctx context.Context) (Result, error) {
	l.mu.Lock()
	hasMore, page := l.hasMore, l.page
	l.mu.Unlock()

	if !hasMore {
		return Result{}, nil
	}
	return l.Fetch(ctx, Append, page+1)
}

// Poll appends whatever the first page holds that is not shown yet.
func (l *Loader) Poll(ctx context.Context) (*domain.PollStats, error) {
	start := time.Now()

	res, err := l.Fetch(ctx, Append, 1)
	if err != nil {
		return nil, err
	}

	return &domain.PollStats{
		Fetched:  res.Fetched,
		New:      len(res.Added),
		Added:    res.Added,
		Duration: time.Since(start),
	}, nil
}

func (l *Loader) begin(ctx context.Context, mode Mode) (context.Context, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight {
		if l.policy == DropOverlapping || mode == Append {
			l.logger.Debug("dropping overlapping fetch", "mode", mode)
			return nil, 0, ErrInFlight
		}
		l.logger.Debug("superseding in-flight fetch", "generation", l.gen)
		l.cancel()
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	l.gen++
	l.cancel = cancel
	l.inFlight = true

	return fetchCtx, l.gen, nil
}

// release clears the guard if gen still owns it.
func (l *Loader) release(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.releaseLocked(gen)
}

func (l *Loader) releaseLocked(gen uint64) bool {
	if gen != l.gen {
		return false
	}
	l.cancel()
	l.cancel = nil
	l.inFlight = false
	return true
}

func (l *Loader) settle(gen uint64, mode Mode, cursor int, posts []domain.Post, err error) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.releaseLocked(gen) {
		return Result{}, ErrSuperseded
	}

	if err != nil {
		l.errMsg = domain.UserMessage(err, "could not load posts")
		l.logger.Warn("fetch failed",
			"mode", mode,
			"page", cursor,
			"error", err,
		)
		return Result{}, fmt.Errorf("fetch %s page %d: %w", mode, cursor, err)
	}

	var added []domain.Post
	l.items, added = merge(l.items, posts, mode)

	if mode == Restart {
		l.page = cursor
	} else {
		l.page = max(l.page, cursor)
	}
	l.hasMore = len(posts) >= l.pageSize
	l.errMsg = ""

	l.logger.Debug("fetch settled",
		"mode", mode,
		"page", cursor,
		"fetched", len(posts),
		"added", len(added),
		"held", len(l.items),
		"has_more", l.hasMore,
	)

	return Result{Fetched: len(posts), Added: added}, nil
}

// merge returns the new held collection and the posts it gained. IDs are
// unique in the result and first-seen order wins.
func merge(held, fetched []domain.Post, mode Mode) (items, added []domain.Post) {
	known := make(map[string]struct{}, len(held))
	for _, p := range held {
		known[p.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(held)+len(fetched))
	if mode == Append {
		items = held
		for id := range known {
			seen[id] = struct{}{}
		}
	} else {
		items = make([]domain.Post, 0, len(fetched))
	}

	for _, p := range fetched {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		items = append(items, p)

		if _, old := known[p.ID]; !old {
			added = append(added, p)
		}
	}

	return items, added
}

// Items returns a copy of the held posts.
func (l *Loader) Items() []domain.Post {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Filter returns the held posts matching query; see the package func Filter.
func (l *Loader) Filter(query string) []domain.Post {
	return Filter(l.Items(), query)
}

func (l *Loader) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

func (l *Loader) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

func (l *Loader) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// Err returns the message of the last failed fetch, or "" after a success.
func (l *Loader) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errMsg
}

// Filter returns the posts whose title, body or author contains query,
// ignoring case. The query is matched as typed, surrounding spaces included.
// A blank query matches everything. posts is not modified.
func Filter(posts []domain.Post, query string) []domain.Post {
	if strings.TrimSpace(query) == "" {
		return slices.Clone(posts)
	}
	q := strings.ToLower(query)

	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Body), q) ||
			strings.Contains(strings.ToLower(p.Author), q) {
			out = append(out, p)
		}
	}
	return out
}
