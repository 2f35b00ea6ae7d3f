package sitemapsubmit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// CacheStore is where the companion module keeps its rendered sitemap.
type CacheStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// LevelDBStore reads the companion's leveldb cache. Entries are stored as
// "e:<key>" with a sibling "m:<key>" metadata record; nested sitemaps live
// under "<key>/".
type LevelDBStore struct {
	db *leveldb.DB
}

func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func (s *LevelDBStore) Exists(_ context.Context, key string) (bool, error) {
	keys, err := s.entryKeys(key)
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}

func (s *LevelDBStore) Delete(_ context.Context, key string) error {
	keys, err := s.entryKeys(key)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, k := range keys {
		batch.Delete([]byte("e:" + k))
		batch.Delete([]byte("m:" + k))
	}
	return s.db.Write(batch, nil)
}

// entryKeys lists key itself and anything nested under key/.
func (s *LevelDBStore) entryKeys(key string) ([]string, error) {
	var out []string
	ok, err := s.db.Has([]byte("e:"+key), nil)
	if err != nil {
		return nil, err
	}
	if ok {
		out = append(out, key)
	}

	it := s.db.NewIterator(util.BytesPrefix([]byte("e:"+key+"/")), nil)
	defer it.Release()
	for it.Next() {
		out = append(out, strings.TrimPrefix(string(it.Key()), "e:"))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// FileStore treats keys as paths relative to root. A key may name a single
// file or a whole directory of cached output.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	return os.RemoveAll(p)
}

func (s *FileStore) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("empty cache key")
	}
	p := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("cache key %q escapes %s", key, s.root)
	}
	return p, nil
}
