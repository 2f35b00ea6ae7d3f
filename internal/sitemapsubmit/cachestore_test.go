package sitemapsubmit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDBStore_ExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLevelDBStore(filepath.Join(t.TempDir(), "leveldb"))
	require.NoError(t, err)
	defer store.Close()

	for _, k := range []string{
		"e:MarkupCache/MarkupSitemap",
		"m:MarkupCache/MarkupSitemap",
		"e:MarkupCache/MarkupSitemap/sitemap-2.xml",
		"m:MarkupCache/MarkupSitemap/sitemap-2.xml",
		"e:MarkupCache/MarkupSitemapOther",
	} {
		require.NoError(t, store.db.Put([]byte(k), []byte("x"), nil))
	}

	ok, err := store.Exists(ctx, "MarkupCache/MarkupSitemap")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "MarkupCache/MarkupSitemap"))

	ok, err = store.Exists(ctx, "MarkupCache/MarkupSitemap")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, gone := range []string{"m:MarkupCache/MarkupSitemap", "m:MarkupCache/MarkupSitemap/sitemap-2.xml"} {
		has, err := store.db.Has([]byte(gone), nil)
		require.NoError(t, err)
		assert.False(t, has, gone)
	}
	has, err := store.db.Has([]byte("e:MarkupCache/MarkupSitemapOther"), nil)
	require.NoError(t, err)
	assert.True(t, has, "sibling keys must survive")
}

func TestLevelDBStore_NestedOnly(t *testing.T) {
	store, err := NewLevelDBStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.db.Put([]byte("e:sitemaps/index/part-1"), []byte("x"), nil))
	ok, err := store.Exists(context.Background(), "sitemaps/index")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLevelDBStore_WithInvalidation(t *testing.T) {
	store, err := NewLevelDBStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.db.Put([]byte("e:MarkupCache/MarkupSitemap"), []byte("<urlset/>"), nil))

	d := DirectInvalidation{Store: store, Key: "MarkupCache/MarkupSitemap"}
	assert.True(t, d.Clear(context.Background()))
	assert.True(t, d.Clear(context.Background()), "clearing an empty cache still succeeds")
}

func TestFileStore_ExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "MarkupCache", "MarkupSitemap")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitemap.xml.cache"), []byte("<urlset/>"), 0o644))

	store := NewFileStore(root)
	ok, err := store.Exists(ctx, "MarkupCache/MarkupSitemap")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "MarkupCache/MarkupSitemap"))
	ok, err = store.Exists(ctx, "MarkupCache/MarkupSitemap")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(filepath.Join(root, "MarkupCache"))
	assert.NoError(t, err, "parent directory is left in place")
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	store := NewFileStore(t.TempDir())
	for _, key := range []string{"", "../outside", ".", "a/../../b"} {
		_, err := store.Exists(context.Background(), key)
		assert.Error(t, err, key)
		assert.Error(t, store.Delete(context.Background(), key), key)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SITEMAPSUBMIT_TEST_REDIS")
	if addr == "" {
		t.Skip("SITEMAPSUBMIT_TEST_REDIS not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	key := "sitemapsubmit:test:" + t.Name()
	require.NoError(t, rdb.Set(ctx, key, "<urlset/>", 0).Err())

	store := NewRedisStore(rdb)
	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, key))
	ok, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
