package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gongbuapp/gongbu/core/session"
)

type sessionRepository struct {
	db  *sessionTable
	now func() time.Time
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db.session, now: time.Now}
}

// NewSessionRepositoryMock freezes the repository clock; for tests.
func NewSessionRepositoryMock(db *DB, now func() time.Time) *sessionRepository {
	return &sessionRepository{db: db.session, now: now}
}

func (repo *sessionRepository) CreateSession(_ context.Context, sess session.Session) (session.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	repo.db.table[sess.ID] = &sess
	repo.db.order = append(repo.db.order, sess.ID)
	return sess, nil
}

func (repo *sessionRepository) GetSessionByID(_ context.Context, id string) (session.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sess, ok := repo.db.table[id]; ok {
		return *sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) ListByUser(_ context.Context, userID string, w session.Window) ([]session.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	now := repo.now()
	sessions := make([]session.Session, 0)
	for _, id := range repo.db.order {
		sess, ok := repo.db.table[id]
		if !ok || sess.UserID != userID {
			continue
		}
		if !w.Contains(sess.CreatedAt, now) {
			continue
		}
		sessions = append(sessions, *sess)
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

func (repo *sessionRepository) ListSince(_ context.Context, start time.Time) ([]session.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sessions := make([]session.Session, 0)
	for _, id := range repo.db.order {
		sess, ok := repo.db.table[id]
		if !ok {
			continue
		}
		if !start.IsZero() && sess.CreatedAt.Before(start) {
			continue
		}
		sessions = append(sessions, *sess)
	}
	return sessions, nil
}

func (repo *sessionRepository) DeleteSessionsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
