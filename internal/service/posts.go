package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"edublog/internal/domain"
	"edublog/internal/validate"
)

// LikedPostsKey holds the JSON array of post IDs liked on this device.
const LikedPostsKey = "likedPosts"

type PostForm struct {
	Title string `json:"title" validate:"notblank"`
	Body  string `json:"body" validate:"notblank"`
}

type CommentForm struct {
	Body string `json:"comment" validate:"notblank"`
}

type PostService struct {
	api     PostAPI
	session Session
	local   LocalStore
	notify  notifier
	logger  *slog.Logger
}

// NewPostService creates a post service. publisher may be nil.
func NewPostService(api PostAPI, session Session, local LocalStore, publisher Publisher, logger *slog.Logger) *PostService {
	logger = logger.With("component", "posts")

	return &PostService{
		api:     api,
		session: session,
		local:   local,
		notify:  notifier{publisher: publisher, logger: logger, now: time.Now},
		logger:  logger,
	}
}

func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	p, err := s.api.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return p, nil
}

// Create publishes a new post authored by the logged-in account's name.
func (s *PostService) Create(ctx context.Context, form PostForm) (*domain.Post, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}

	sess, err := requireSession(ctx, s.session)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sess.Name) == "" {
		return nil, &domain.APIError{
			Kind:    domain.ErrUnauthorized,
			Message: "author name missing, log in again",
		}
	}

	p, err := s.api.CreatePost(ctx, form.Title, form.Body, sess.Name)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info("post created", "id", p.ID, "author", p.Author)
	s.notify.emit(ctx, domain.EventPostCreated, p.ID, actor(sess))
	return p, nil
}

func (s *PostService) Update(ctx context.Context, id string, form PostForm) (*domain.Post, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}

	sess, err := requireSession(ctx, s.session)
	if err != nil {
		return nil, err
	}

	p, err := s.api.UpdatePost(ctx, id, form.Title, form.Body)
	if err != nil {
		return nil, fmt.Errorf("update post %s: %w", id, err)
	}

	s.notify.emit(ctx, domain.EventPostUpdated, id, actor(sess))
	return p, nil
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	sess, err := requireSession(ctx, s.session)
	if err != nil {
		return err
	}

	if err := s.api.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}

	s.logger.Info("post deleted", "id", id)
	s.notify.emit(ctx, domain.EventPostDeleted, id, actor(sess))
	return nil
}

// Like registers one like per post and device. A post already liked here
// yields domain.ErrAlreadyLiked without contacting the backend.
func (s *PostService) Like(ctx context.Context, id string) (int, error) {
	liked, err := s.likedIDs(ctx)
	if err != nil {
		return 0, err
	}
	if slices.Contains(liked, id) {
		return 0, domain.ErrAlreadyLiked
	}

	likes, err := s.api.LikePost(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("like post %s: %w", id, err)
	}

	data, err := json.Marshal(append(liked, id))
	if err != nil {
		return likes, fmt.Errorf("encode liked posts: %w", err)
	}
	if err := s.local.Set(ctx, LikedPostsKey, string(data)); err != nil {
		s.logger.Warn("failed to record like", "id", id, "error", err)
	}

	sess, _ := s.session.Current(ctx)
	s.notify.emit(ctx, domain.EventPostLiked, id, actor(sess))
	return likes, nil
}

// Liked reports whether id was liked from this device.
func (s *PostService) Liked(ctx context.Context, id string) (bool, error) {
	liked, err := s.likedIDs(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(liked, id), nil
}

func (s *PostService) Comment(ctx context.Context, id string, form CommentForm) (*domain.Comment, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}

	c, err := s.api.AddComment(ctx, id, form.Body)
	if err != nil {
		return nil, fmt.Errorf("comment on post %s: %w", id, err)
	}

	sess, _ := s.session.Current(ctx)
	s.notify.emit(ctx, domain.EventPostCommented, id, actor(sess))
	return c, nil
}

func (s *PostService) likedIDs(ctx context.Context) ([]string, error) {
	raw, ok, err := s.local.Get(ctx, LikedPostsKey)
	if err != nil {
		return nil, fmt.Errorf("read liked posts: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.logger.Warn("discarding unreadable liked posts record", "error", err)
		return nil, nil
	}
	return ids, nil
}
