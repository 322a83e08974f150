package feed

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"edublog/internal/domain"
)

// Lister reads one page of the remote post listing.
type Lister interface {
	ListPosts(ctx context.Context, page int) ([]domain.Post, error)
}
