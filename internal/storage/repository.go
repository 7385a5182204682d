package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"subtrack/internal/core"
)

const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

const dateLayout = "2006-01-02"

// ErrNotFound is returned when a row does not exist or belongs to another owner.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateSubscription inserts a subscription for its owner. A missing id is
// generated; timestamps are set and the row is queued for backup sync.
func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s *core.Subscription) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions
			(id, owner_id, name, monthly_cents, actual_cents, frequency,
			 start_date, billing_day, category, reminder_days,
			 is_shared, total_cents, participants, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OwnerID, s.Name, s.MonthlyAmount.Cents, s.ActualAmount.Cents, string(s.Frequency),
		s.StartDate.Format(dateLayout), s.BillingDay, s.Category, s.ReminderDays,
		boolToInt(s.Shared), nullCents(s.TotalAmount), nullInt(s.Participants),
		SyncPending, now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved",
		"id", s.ID,
		"owner_id", s.OwnerID,
		"name", s.Name,
		"monthly_cents", s.MonthlyAmount.Cents)
	return nil
}

// GetSubscription fetches one row scoped to its owner.
func (r *SQLiteRepository) GetSubscription(ctx context.Context, ownerID, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+`
		FROM subscriptions WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanSubscription(row)
}

// ListSubscriptions returns all rows for an owner, newest start date first.
// Due-date ordering is a projection concern and is done in core.Summarize.
func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, ownerID string) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		FROM subscriptions WHERE owner_id = ? ORDER BY start_date DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// ListAllSubscriptions returns every row across owners. Used by the
// reminder worker, never exposed over HTTP.
func (r *SQLiteRepository) ListAllSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		FROM subscriptions ORDER BY owner_id, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list all subscriptions: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// UpdateSubscription overwrites all mutable fields of an owner's row.
func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, s *core.Subscription) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET
			name = ?, monthly_cents = ?, actual_cents = ?, frequency = ?,
			start_date = ?, billing_day = ?, category = ?, reminder_days = ?,
			is_shared = ?, total_cents = ?, participants = ?,
			sync_status = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		s.Name, s.MonthlyAmount.Cents, s.ActualAmount.Cents, string(s.Frequency),
		s.StartDate.Format(dateLayout), s.BillingDay, s.Category, s.ReminderDays,
		boolToInt(s.Shared), nullCents(s.TotalAmount), nullInt(s.Participants),
		SyncPending, now.Format(time.RFC3339),
		s.ID, s.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.UpdatedAt = now
	return nil
}

// DeleteSubscription removes an owner's row outright. No soft delete.
func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Subscription deleted", "id", id, "owner_id", ownerID)
	return nil
}

// GetPendingSync returns subscriptions waiting for backup sync.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		FROM subscriptions WHERE sync_status = ? ORDER BY updated_at LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// GetSubscriptionByID fetches a row without owner scoping. Worker-only.
func (r *SQLiteRepository) GetSubscriptionByID(ctx context.Context, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+`
		FROM subscriptions WHERE id = ?`, id)
	return scanSubscription(row)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, SyncDone)
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, SyncError)
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status %s: %w", status, err)
	}
	return nil
}

// CreateUser inserts a new account row.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.getUser(ctx, `SELECT id, email, display_name, password_hash, created_at
		FROM users WHERE email = ?`, email)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return r.getUser(ctx, `SELECT id, email, display_name, password_hash, created_at
		FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepository) getUser(ctx context.Context, query string, arg any) (*core.User, error) {
	var u core.User
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

const selectColumns = `
	SELECT id, owner_id, name, monthly_cents, actual_cents, frequency,
	       start_date, billing_day, category, reminder_days,
	       is_shared, total_cents, participants, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (core.Subscription, error) {
	var (
		s          core.Subscription
		freq       string
		startDate  string
		shared     int64
		totalCents sql.NullInt64
		parts      sql.NullInt64
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.MonthlyAmount.Cents, &s.ActualAmount.Cents, &freq,
		&startDate, &s.BillingDay, &s.Category, &s.ReminderDays,
		&shared, &totalCents, &parts, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}

	s.Frequency = core.Frequency(freq)
	s.Shared = shared != 0
	if totalCents.Valid {
		s.TotalAmount = &core.Money{Cents: totalCents.Int64}
	}
	if parts.Valid {
		p := int(parts.Int64)
		s.Participants = &p
	}
	if s.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return core.Subscription{}, fmt.Errorf("parse start date %q: %w", startDate, err)
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return s, nil
}

func collectSubscriptions(rows *sql.Rows) ([]core.Subscription, error) {
	var subs []core.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullCents(m *core.Money) any {
	if m == nil {
		return nil
	}
	return m.Cents
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
