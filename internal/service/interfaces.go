package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"edublog/internal/domain"
)

type PostAPI interface {
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, title, body, author string) (*domain.Post, error)
	UpdatePost(ctx context.Context, id, title, body string) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) error
	LikePost(ctx context.Context, id string) (int, error)
	AddComment(ctx context.Context, id, body string) (*domain.Comment, error)
}

type AccountAPI interface {
	Register(ctx context.Context, name, email, secret string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, id, name, email string, secret *string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

type Session interface {
	Current(ctx context.Context) (*domain.Session, error)
}

// LocalStore holds device-local records such as liked posts.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Publisher interface {
	Publish(ctx context.Context, event *domain.Event) error
	Close() error
}
