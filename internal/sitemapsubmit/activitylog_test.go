package sitemapsubmit

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLog_SaveAndTail(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := NewFileLog(dir)
	require.NoError(t, err)
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	ctx := context.Background()
	require.NoError(t, l.Save(ctx, LogChannel, "ID: 1, URL: /, Test - Success"))
	require.NoError(t, l.Save(ctx, LogChannel, "ID: 2, URL: /a/,\nTest - Success"))
	require.NoError(t, l.Save(ctx, LogChannel, "ID: 3, URL: /b/, Test - Success"))

	raw, err := os.ReadFile(filepath.Join(dir, "sitemap-submit.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"2024-03-01 12:30:00\tID: 1, URL: /, Test - Success\n"+
			"2024-03-01 12:30:00\tID: 2, URL: /a/, Test - Success\n"+
			"2024-03-01 12:30:00\tID: 3, URL: /b/, Test - Success\n",
		string(raw))

	lines, err := l.Tail(LogChannel, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2024-03-01 12:30:00\tID: 2, URL: /a/, Test - Success",
		"2024-03-01 12:30:00\tID: 3, URL: /b/, Test - Success",
	}, lines)

	all, err := l.Tail(LogChannel, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileLog_TailMissingChannel(t *testing.T) {
	l, err := NewFileLog(t.TempDir())
	require.NoError(t, err)

	lines, err := l.Tail("never-written", 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFileLog_InvalidChannel(t *testing.T) {
	l, err := NewFileLog(t.TempDir())
	require.NoError(t, err)

	for _, ch := range []string{"", "../etc/passwd", "a/b", "with space"} {
		assert.Error(t, l.Save(context.Background(), ch, "x"), ch)
	}
}

func TestSlogLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLog(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, l.Save(context.Background(), LogChannel, "ID: 1, URL: /, Test - Success"))
	assert.Contains(t, buf.String(), `msg="ID: 1, URL: /, Test - Success"`)
	assert.Contains(t, buf.String(), "channel=sitemap-submit")
}

type fakeExecer struct {
	sql  []string
	args [][]any
	err  error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestPostgresLog_Save(t *testing.T) {
	db := &fakeExecer{}
	l := &PostgresLog{db: db}

	require.NoError(t, l.Save(context.Background(), LogChannel, "ID: 1, URL: /, Test - Success"))
	require.Len(t, db.sql, 1)
	assert.Contains(t, db.sql[0], "INSERT INTO activity_log")
	assert.Equal(t, []any{LogChannel, "ID: 1, URL: /, Test - Success"}, db.args[0])

	db.err = errBoom
	assert.ErrorIs(t, l.Save(context.Background(), LogChannel, "x"), errBoom)
	l.Close()
}

func TestPostgresLog_Integration(t *testing.T) {
	dsn := os.Getenv("SITEMAPSUBMIT_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("SITEMAPSUBMIT_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	l, err := NewPostgresLog(ctx, dsn)
	require.NoError(t, err)
	defer l.Close()

	msg := "ID: 1, URL: /, " + t.Name()
	require.NoError(t, l.Save(ctx, LogChannel, msg))

	var n int
	err = l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_log WHERE channel = $1 AND message = $2`, LogChannel, msg).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMultiLog(t *testing.T) {
	a := &recordingLog{}
	b := &recordingLog{err: errBoom}
	c := &recordingLog{}

	err := MultiLog{a, nil, b, c}.Save(context.Background(), LogChannel, "hello")

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"hello"}, a.messages)
	assert.Equal(t, []string{"hello"}, b.messages)
	assert.Equal(t, []string{"hello"}, c.messages)
}
