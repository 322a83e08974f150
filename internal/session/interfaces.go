package session

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"edublog/internal/domain"
)

// Store is the device-local key-value store holding the session keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

type Authenticator interface {
	Login(ctx context.Context, email, secret string) (*domain.LoginResult, error)
}
