package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/gongbuapp/gongbu/core/session"
)

const sessionColumns = `id, user_id, percent_complete, reflection, created_at`

type sessionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db, now: time.Now}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO session (`+sessionColumns+`)
		 VALUES (:id, :user_id, :percent_complete, :reflection, :created_at)`,
		sess)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}
	return sess, nil
}

func (repo *sessionRepository) GetSessionByID(ctx context.Context, id string) (session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return session.Session{}, session.ErrNotFound
	}
	var sess session.Session
	err := repo.db.GetContext(ctx, &sess, `SELECT `+sessionColumns+` FROM session WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "finding session by ID")
	}
	return sess, nil
}

func (repo *sessionRepository) ListByUser(ctx context.Context, userID string, w session.Window) ([]session.Session, error) {
	now := repo.now()
	query := `SELECT ` + sessionColumns + ` FROM session WHERE user_id = $1 AND created_at <= $2`
	args := []interface{}{userID, now}
	if start := w.Start(now); !start.IsZero() {
		query += ` AND created_at >= $3`
		args = append(args, start)
	}
	query += ` ORDER BY created_at DESC`

	sessions := make([]session.Session, 0)
	if err := repo.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, errors.Wrap(err, "listing user sessions")
	}
	return sessions, nil
}

func (repo *sessionRepository) ListSince(ctx context.Context, start time.Time) ([]session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM session`
	args := make([]interface{}, 0, 1)
	if !start.IsZero() {
		query += ` WHERE created_at >= $1`
		args = append(args, start)
	}
	query += ` ORDER BY created_at`

	sessions := make([]session.Session, 0)
	if err := repo.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, errors.Wrap(err, "listing session snapshot")
	}
	return sessions, nil
}

func (repo *sessionRepository) DeleteSessionsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM session WHERE id::text = ANY($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting sessions")
}
