package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// SQLStore implements Store on database/sql. Works with both the
// sqlite and postgres drivers; queries are written with ? placeholders
// and rebound for postgres.
type SQLStore struct {
	db         *sql.DB
	driver     string
	freeChecks int
}

func newSQLStore(cfg Config) (*SQLStore, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg.SQLitePath)
	case "postgres":
		db, err = sql.Open("postgres", cfg.PostgresDSN)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLStore{db: db, driver: cfg.Driver, freeChecks: cfg.FreeChecks}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] store opened: driver=%s", cfg.Driver)
	return s, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "data/contragent.db"
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL keeps readers unblocked while handlers write; busy_timeout
	// covers concurrent evaluation requests hitting the same tables.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *SQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id       BIGINT PRIMARY KEY,
			username      TEXT NOT NULL DEFAULT '',
			checks_left   INTEGER NOT NULL,
			is_premium    INTEGER NOT NULL DEFAULT 0,
			premium_until BIGINT NOT NULL DEFAULT 0,
			created_at    BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS api_usage (
			service         TEXT PRIMARY KEY,
			total_limit     INTEGER NOT NULL,
			used_count      INTEGER NOT NULL DEFAULT 0,
			alert_threshold INTEGER NOT NULL,
			last_alert_date TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS checks_history (
			id         TEXT PRIMARY KEY,
			user_id    BIGINT NOT NULL,
			inn        TEXT NOT NULL,
			verdict    TEXT NOT NULL,
			sources_ok INTEGER NOT NULL,
			elapsed_ms BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_created ON checks_history(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_history_user ON checks_history(user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// rebind converts ? placeholders to $1, $2, ... for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

func (s *SQLStore) GetOrCreateUser(ctx context.Context, userID int64, username string) (*model.UserQuota, error) {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (user_id, username, checks_left, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`),
		userID, username, s.freeChecks, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if username != "" && username != u.Username {
		if _, err := s.db.ExecContext(ctx, s.rebind(
			`UPDATE users SET username = ? WHERE user_id = ?`), username, userID); err != nil {
			return nil, fmt.Errorf("update username: %w", err)
		}
		u.Username = username
	}
	return u, nil
}

func (s *SQLStore) getUser(ctx context.Context, userID int64) (*model.UserQuota, error) {
	var u model.UserQuota
	var premium int
	var until int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT user_id, username, checks_left, is_premium, premium_until FROM users WHERE user_id = ?`),
		userID).Scan(&u.UserID, &u.Username, &u.ChecksLeft, &premium, &until)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.IsPremium = premium != 0
	if until > 0 {
		u.PremiumUntil = time.Unix(until, 0)
	}
	return &u, nil
}

func (s *SQLStore) ConsumeCheck(ctx context.Context, userID int64) (bool, error) {
	// Single conditional UPDATE keeps check-and-decrement indivisible.
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET checks_left = checks_left - 1 WHERE user_id = ? AND checks_left > 0`),
		userID)
	if err != nil {
		return false, fmt.Errorf("consume check: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume check: %w", err)
	}
	return n == 1, nil
}

func (s *SQLStore) SetPremium(ctx context.Context, userID int64, until time.Time) error {
	var untilUnix int64
	if !until.IsZero() {
		untilUnix = until.Unix()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (user_id, username, checks_left, is_premium, premium_until, created_at)
		 VALUES (?, '', ?, 1, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET is_premium = 1, premium_until = excluded.premium_until`),
		userID, s.freeChecks, untilUnix, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set premium: %w", err)
	}
	return nil
}

func (s *SQLStore) EnsureService(ctx context.Context, service string, limit, threshold int) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO api_usage (service, total_limit, alert_threshold) VALUES (?, ?, ?)
		 ON CONFLICT (service) DO UPDATE SET total_limit = excluded.total_limit,
		                                     alert_threshold = excluded.alert_threshold`),
		service, limit, threshold)
	if err != nil {
		return fmt.Errorf("ensure service %s: %w", service, err)
	}
	return nil
}

func (s *SQLStore) AddUsage(ctx context.Context, service string, n int, today string) (model.ServiceUsage, bool, error) {
	var usage model.ServiceUsage

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return usage, false, fmt.Errorf("begin usage tx: %w", err)
	}
	defer tx.Rollback()

	// The leading UPDATE takes the row lock, so concurrent increments
	// serialize and the once-per-day alert decision stays exact.
	res, err := tx.ExecContext(ctx, s.rebind(
		`UPDATE api_usage SET used_count = used_count + ? WHERE service = ?`), n, service)
	if err != nil {
		return usage, false, fmt.Errorf("add usage: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		return usage, false, fmt.Errorf("add usage: %w", err)
	} else if rows == 0 {
		return usage, false, ErrNotFound
	}

	err = tx.QueryRowContext(ctx, s.rebind(
		`SELECT service, total_limit, used_count, alert_threshold, last_alert_date
		 FROM api_usage WHERE service = ?`), service).Scan(
		&usage.Service, &usage.TotalLimit, &usage.UsedCount, &usage.AlertThreshold, &usage.LastAlertDate)
	if err != nil {
		return usage, false, fmt.Errorf("read usage: %w", err)
	}

	alerted := usage.Remaining() <= usage.AlertThreshold && usage.LastAlertDate != today
	if alerted {
		if _, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE api_usage SET last_alert_date = ? WHERE service = ?`), today, service); err != nil {
			return usage, false, fmt.Errorf("mark alert date: %w", err)
		}
		usage.LastAlertDate = today
	}

	if err := tx.Commit(); err != nil {
		return usage, false, fmt.Errorf("commit usage tx: %w", err)
	}
	return usage, alerted, nil
}

func (s *SQLStore) ResetUsage(ctx context.Context, service string, newLimit *int) error {
	var res sql.Result
	var err error
	if newLimit != nil {
		res, err = s.db.ExecContext(ctx, s.rebind(
			`UPDATE api_usage SET used_count = 0, last_alert_date = '', total_limit = ? WHERE service = ?`),
			*newLimit, service)
	} else {
		res, err = s.db.ExecContext(ctx, s.rebind(
			`UPDATE api_usage SET used_count = 0, last_alert_date = '' WHERE service = ?`), service)
	}
	if err != nil {
		return fmt.Errorf("reset usage: %w", err)
	}
	if rows, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("reset usage: %w", err)
	} else if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListUsage(ctx context.Context) ([]model.ServiceUsage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT service, total_limit, used_count, alert_threshold, last_alert_date
		 FROM api_usage ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	var out []model.ServiceUsage
	for rows.Next() {
		var u model.ServiceUsage
		if err := rows.Scan(&u.Service, &u.TotalLimit, &u.UsedCount, &u.AlertThreshold, &u.LastAlertDate); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) RecordCheck(ctx context.Context, rec *model.CheckRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO checks_history (id, user_id, inn, verdict, sources_ok, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.UserID, rec.INN, string(rec.Verdict), rec.SourcesOK,
		rec.Elapsed.Milliseconds(), createdAt.Unix())
	if err != nil {
		return fmt.Errorf("record check: %w", err)
	}
	return nil
}

func (s *SQLStore) CountChecksSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM checks_history WHERE created_at >= ?`), t.Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count checks: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	log.Println("[INFO] closing store")
	return s.db.Close()
}
