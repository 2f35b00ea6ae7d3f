package sitemapsubmit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityLog persists one line per dispatch under a named channel.
type ActivityLog interface {
	Save(ctx context.Context, channel, message string) error
}

const logTimeLayout = "2006-01-02 15:04:05"

// FileLog appends to <dir>/<channel>.txt. Appends are serialized across
// processes with a lock file next to the log.
type FileLog struct {
	dir string
	now func() time.Time
}

func NewFileLog(dir string) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &FileLog{dir: dir, now: time.Now}, nil
}

func (l *FileLog) Save(_ context.Context, channel, message string) error {
	path, err := l.path(channel)
	if err != nil {
		return err
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	line := l.now().Format(logTimeLayout) + "\t" + oneLine(message) + "\n"
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Tail returns up to n most recent messages of channel, oldest first.
func (l *FileLog) Tail(channel string, n int) ([]string, error) {
	path, err := l.path(channel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, sc.Err()
}

func (l *FileLog) path(channel string) (string, error) {
	channel = strings.TrimSpace(strings.ToLower(channel))
	if channel == "" {
		return "", errors.New("empty log channel")
	}
	for _, r := range channel {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return "", fmt.Errorf("invalid log channel %q", channel)
		}
	}
	return filepath.Join(l.dir, channel+".txt"), nil
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

type SlogLog struct {
	logger *slog.Logger
}

func NewSlogLog(logger *slog.Logger) *SlogLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLog{logger: logger}
}

func (l *SlogLog) Save(ctx context.Context, channel, message string) error {
	l.logger.InfoContext(ctx, message, "channel", channel)
	return nil
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresLog stores activity lines in the activity_log table.
type PostgresLog struct {
	db   pgExecer
	pool *pgxpool.Pool
}

const createActivityLogTable = `
	CREATE TABLE IF NOT EXISTS activity_log (
		id BIGSERIAL PRIMARY KEY,
		channel TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

func NewPostgresLog(ctx context.Context, connString string) (*PostgresLog, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createActivityLogTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create activity_log: %w", err)
	}
	return &PostgresLog{db: pool, pool: pool}, nil
}

func (l *PostgresLog) Save(ctx context.Context, channel, message string) error {
	_, err := l.db.Exec(ctx,
		`INSERT INTO activity_log (channel, message) VALUES ($1, $2);`,
		channel, message,
	)
	return err
}

func (l *PostgresLog) Close() {
	if l.pool != nil {
		l.pool.Close()
	}
}

// MultiLog writes to every channel and joins their errors.
type MultiLog []ActivityLog

func (m MultiLog) Save(ctx context.Context, channel, message string) error {
	var errs []error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.Save(ctx, channel, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
