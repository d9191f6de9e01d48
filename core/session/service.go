package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gongbuapp/gongbu/core"
)

var ErrNotFound = errors.New("session not found")

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session) (Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		// ListByUser returns a learner's sessions logged within [window start, now],
		// most recent first.
		ListByUser(ctx context.Context, userID string, w Window) ([]Session, error)
		// ListSince returns every learner's sessions logged at or after start
		// (zero start means all) in a single snapshot read, so that one
		// leaderboard pass never mixes per-learner states taken at different
		// times.
		ListSince(ctx context.Context, start time.Time) ([]Session, error)
		DeleteSessionsByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		Log(ctx context.Context, userID string, ns NewSession) (Session, error)
		GetByID(ctx context.Context, id string) (Session, error)
		QueryByUser(ctx context.Context, userID string, w Window) ([]Session, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, logger core.Logger) *service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

func (svc *service) Log(ctx context.Context, userID string, ns NewSession) (Session, error) {
	createdAt := ns.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	sess := Session{
		UserID:          userID,
		PercentComplete: ns.PercentComplete,
		Reflection:      null.NewString(ns.Reflection, ns.Reflection != ""),
		CreatedAt:       createdAt,
	}
	return svc.repo.CreateSession(ctx, sess)
}

func (svc *service) GetByID(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

func (svc *service) QueryByUser(ctx context.Context, userID string, w Window) ([]Session, error) {
	return svc.repo.ListByUser(ctx, userID, w)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSessionsByID(ctx, ids...)
}
