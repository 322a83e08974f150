// Package service implements the post and account operations offered to the
// user on top of the backend client and the local session.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"edublog/internal/domain"
)

// requireSession returns the current session or domain.ErrUnauthorized.
func requireSession(ctx context.Context, session Session) (*domain.Session, error) {
	sess, err := session.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if sess == nil {
		return nil, domain.ErrUnauthorized
	}
	return sess, nil
}

// notifier forwards activity events to an optional publisher.
type notifier struct {
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func (n notifier) emit(ctx context.Context, kind domain.EventKind, subject, actor string) {
	if n.publisher == nil {
		return
	}

	event := &domain.Event{
		Kind:    kind,
		Subject: subject,
		Actor:   actor,
		At:      n.now().UTC(),
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Warn("failed to publish event",
			"kind", kind,
			"subject", subject,
			"error", err,
		)
	}
}

func actor(sess *domain.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Email
}
