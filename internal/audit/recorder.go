package audit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comanda-erp/comanda/internal/platform/db"
)

// Recorder writes events into auth_events.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record persists the event. A successful login also stamps
// users.last_login_at in the same transaction.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if r == nil || r.pool == nil {
		return errors.New("audit recorder not initialised")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `INSERT INTO auth_events (id, kind, client_id, user_id, email, role, reason, occurred_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
ON CONFLICT (id) DO NOTHING`,
			event.ID, string(event.Kind), event.ClientID, event.UserID, event.Email, event.Role, event.Reason, event.At)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 || event.Kind != KindLoginSucceeded || event.UserID == "" {
			return nil
		}
		_, err = tx.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id::text = $1`, event.UserID, event.At)
		return err
	})
}

// Purge deletes events older than cutoff and returns how many were removed.
func (r *Recorder) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("audit recorder not initialised")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
