package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/dberr"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	"github.com/AccelByte/mission-progression-service/internal/store"
)

// Store is the lib/pq-backed EventStore implementation. It wraps either a
// *sql.DB or a *sql.Tx behind the same querier interface so EventStoreTx can
// share every method with Store instead of duplicating them.
type Store struct {
	q querier
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New wraps an open connection pool as an EventStore.
func New(db *sql.DB) *Store {
	return &Store{q: db}
}

// ConfigureDB applies the connection pool settings this service runs with
// in production.
func ConfigureDB(db *sql.DB) {
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
}

// -- UserStore --

func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, username, password, points, created_at FROM users WHERE id = $1
	`, userID)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Points, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, dberr.Transient("get user", err)
	}
	return &u, nil
}

// -- GameStore --

func (s *Store) EnsureGame(ctx context.Context, name string) (*domain.Game, error) {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO games (id, name, created_at)
		VALUES (gen_random_uuid(), $1, NOW())
		ON CONFLICT (name) DO NOTHING
	`, name)
	if err != nil {
		return nil, dberr.Transient("ensure game", err)
	}

	row := s.q.QueryRowContext(ctx, `SELECT id, name, created_at FROM games WHERE name = $1`, name)
	var g domain.Game
	if err := row.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
		return nil, dberr.Transient("fetch game after ensure", err)
	}
	return &g, nil
}

// -- FactStore --

func (s *Store) RecordLogin(ctx context.Context, userID string, loginDate time.Time, eventID string) (bool, error) {
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO login_days (user_id, login_date, event_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, login_date) DO NOTHING
	`, userID, clock.TruncateToDate(loginDate), eventID)
	if err != nil {
		return false, dberr.Transient("record login", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, dberr.Transient("record login rows affected", err)
	}
	return n > 0, nil
}

func (s *Store) RecordLaunch(ctx context.Context, userID, gameID, eventID string, at time.Time) (bool, error) {
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO game_launches (user_id, game_id, event_id, launch_date, first_seen, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, game_id, launch_date) DO NOTHING
	`, userID, gameID, eventID, clock.TruncateToDate(at), at)
	if err != nil {
		return false, dberr.Transient("record launch", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, dberr.Transient("record launch rows affected", err)
	}
	return n > 0, nil
}

func (s *Store) RecordPlaySession(ctx context.Context, userID, gameID, eventID string, score int, playedAt time.Time) (bool, error) {
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO play_sessions (user_id, game_id, event_id, score, played_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`, userID, gameID, eventID, score, playedAt)
	if err != nil {
		return false, dberr.Transient("record play session", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, dberr.Transient("record play session rows affected", err)
	}
	return n > 0, nil
}

func (s *Store) LoginDaysSince(ctx context.Context, userID string, since time.Time) ([]domain.LoginDay, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT user_id, login_date, event_id, created_at
		FROM login_days
		WHERE user_id = $1 AND login_date >= $2
		ORDER BY login_date DESC
	`, userID, clock.TruncateToDate(since))
	if err != nil {
		return nil, dberr.Transient("login days since", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.LoginDay
	for rows.Next() {
		var l domain.LoginDay
		if err := rows.Scan(&l.UserID, &l.LoginDate, &l.EventID, &l.CreatedAt); err != nil {
			return nil, dberr.Transient("scan login day", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) DistinctGamesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT game_id) FROM game_launches
		WHERE user_id = $1 AND launch_date >= $2
	`, userID, clock.TruncateToDate(since))
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, dberr.Transient("distinct games since", err)
	}
	return n, nil
}

func (s *Store) PlaySessionStatsSince(ctx context.Context, userID string, since time.Time) (int, int, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(score), 0) FROM play_sessions
		WHERE user_id = $1 AND played_at >= $2
	`, userID, since)
	var count, sum int
	if err := row.Scan(&count, &sum); err != nil {
		return 0, 0, dberr.Transient("play session stats since", err)
	}
	return count, sum, nil
}

// -- MissionStore --

func (s *Store) ActiveMissions(ctx context.Context, userID string) ([]domain.Mission, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, user_id, type, cycle_start, status, progress, completed_at, created_at, updated_at
		FROM missions
		WHERE user_id = $1
		ORDER BY cycle_start DESC, type ASC
	`, userID)
	if err != nil {
		return nil, dberr.Transient("active missions", err)
	}
	defer func() { _ = rows.Close() }()

	byStart := make(map[time.Time][]domain.Mission)
	var order []time.Time
	for rows.Next() {
		var m domain.Mission
		if err := rows.Scan(&m.ID, &m.UserID, &m.Type, &m.CycleStart, &m.Status, &m.Progress, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, dberr.Transient("scan mission", err)
		}
		if _, seen := byStart[m.CycleStart]; !seen {
			order = append(order, m.CycleStart)
		}
		byStart[m.CycleStart] = append(byStart[m.CycleStart], m)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Transient("active missions rows", err)
	}

	now := clock.Now()
	for _, cycleStart := range order {
		if clock.WithinCycle(cycleStart, now) {
			return byStart[cycleStart], nil
		}
	}
	return nil, nil
}

func (s *Store) InsertMissionsIfAbsent(ctx context.Context, userID string, types []domain.MissionType, cycleStart time.Time) (int, error) {
	for _, t := range types {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO missions (id, user_id, type, cycle_start, status, progress, created_at, updated_at)
			VALUES (gen_random_uuid(), $1, $2, $3, 'in_progress', 0, NOW(), NOW())
			ON CONFLICT (user_id, type, cycle_start) DO NOTHING
		`, userID, t, cycleStart)
		if err != nil {
			return 0, dberr.Transient("insert mission if absent", err)
		}
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM missions WHERE user_id = $1 AND cycle_start = $2
	`, userID, cycleStart)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, dberr.Transient("count missions for cycle", err)
	}
	return count, nil
}

func (s *Store) CompleteMission(ctx context.Context, userID string, t domain.MissionType, cycleStart time.Time, completedAt time.Time) (bool, error) {
	result, err := s.q.ExecContext(ctx, `
		UPDATE missions
		SET status = 'completed', completed_at = $4, updated_at = NOW()
		WHERE user_id = $1 AND type = $2 AND cycle_start = $3 AND status = 'in_progress'
	`, userID, t, cycleStart, completedAt)
	if err != nil {
		return false, dberr.Transient("complete mission", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, dberr.Transient("complete mission rows affected", err)
	}
	return n > 0, nil
}

func (s *Store) UpdateProgress(ctx context.Context, userID string, t domain.MissionType, cycleStart time.Time, progress int) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE missions
		SET progress = $4, updated_at = NOW()
		WHERE user_id = $1 AND type = $2 AND cycle_start = $3 AND status = 'in_progress'
	`, userID, t, cycleStart, progress)
	if err != nil {
		return dberr.Transient("update mission progress", err)
	}
	return nil
}

// -- RewardStore --

func (s *Store) InsertRewardIfAbsent(ctx context.Context, userID, period string, points int, distributedAt time.Time) (bool, error) {
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO rewards (user_id, period, points, distributed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, period) DO NOTHING
	`, userID, period, points, distributedAt)
	if err != nil {
		return false, dberr.Transient("insert reward if absent", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, dberr.Transient("insert reward rows affected", err)
	}
	return n > 0, nil
}

func (s *Store) AddPoints(ctx context.Context, userID string, points int) (int64, error) {
	result, err := s.q.ExecContext(ctx, `
		UPDATE users SET points = points + $2 WHERE id = $1
	`, userID, points)
	if err != nil {
		return 0, dberr.Transient("add points", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, dberr.Transient("add points rows affected", err)
	}
	return n, nil
}

func (s *Store) RewardsForUser(ctx context.Context, userID string) ([]domain.Reward, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, user_id, period, points, distributed_at
		FROM rewards
		WHERE user_id = $1
		ORDER BY distributed_at DESC
	`, userID)
	if err != nil {
		return nil, dberr.Transient("rewards for user", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Reward
	for rows.Next() {
		var r domain.Reward
		if err := rows.Scan(&r.ID, &r.UserID, &r.Period, &r.Points, &r.DistributedAt); err != nil {
			return nil, dberr.Transient("scan reward", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// -- OutboxStore --

func (s *Store) EnqueueOutbox(ctx context.Context, entry domain.OutboxEntry) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO outbox_entries (event_id, topic, payload, status, retry_count, max_retries, next_retry_at, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, 'PENDING', 0, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (event_id) DO NOTHING
	`, entry.EventID, entry.Topic, entry.Payload, entry.MaxRetries, entry.NextRetryAt, entry.ErrorMessage)
	if err != nil {
		return dberr.Transient("enqueue outbox entry", err)
	}
	return nil
}

func (s *Store) DueOutboxEntries(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, event_id, topic, payload, status, retry_count, max_retries, next_retry_at, COALESCE(error_message, ''), created_at, updated_at
		FROM outbox_entries
		WHERE status = 'PENDING' AND next_retry_at <= $1
		ORDER BY next_retry_at ASC, id ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, dberr.Transient("due outbox entries", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.OutboxEntry
	for rows.Next() {
		var e domain.OutboxEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.Topic, &e.Payload, &e.Status, &e.RetryCount, &e.MaxRetries, &e.NextRetryAt, &e.ErrorMessage, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, dberr.Transient("scan outbox entry", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteOutboxEntry(ctx context.Context, id int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM outbox_entries WHERE id = $1`, id)
	if err != nil {
		return dberr.Transient("delete outbox entry", err)
	}
	return nil
}

func (s *Store) MarkOutboxRetry(ctx context.Context, id int64, nextRetryAt time.Time, errMsg string) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE outbox_entries
		SET retry_count = retry_count + 1,
			next_retry_at = $2,
			error_message = $3,
			status = CASE WHEN retry_count + 1 >= max_retries THEN 'FAILED' ELSE status END,
			updated_at = NOW()
		WHERE id = $1
	`, id, nextRetryAt, errMsg)
	if err != nil {
		return dberr.Transient("mark outbox retry", err)
	}
	return nil
}

func (s *Store) FailOutboxEntry(ctx context.Context, id int64, errMsg string) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE outbox_entries
		SET status = 'FAILED', error_message = $2, updated_at = NOW()
		WHERE id = $1
	`, id, errMsg)
	if err != nil {
		return dberr.Transient("fail outbox entry", err)
	}
	return nil
}

// -- Tx --

func (s *Store) BeginTx(ctx context.Context) (store.EventStoreTx, error) {
	db, ok := s.q.(*sql.DB)
	if !ok {
		return nil, dberr.Transient("begin transaction", errNestedTx)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dberr.Transient("begin transaction", err)
	}
	return &txStore{Store: Store{q: tx}, tx: tx}, nil
}

var errNestedTx = errors.New("postgres: BeginTx called on a transaction-bound store")

type txStore struct {
	Store
	tx *sql.Tx
}

func (t *txStore) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return dberr.Transient("commit transaction", err)
	}
	return nil
}

func (t *txStore) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return dberr.Transient("rollback transaction", err)
	}
	return nil
}
