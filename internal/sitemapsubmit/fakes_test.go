package sitemapsubmit

import (
	"context"
	"errors"
	"sync"
)

type fakePinger struct {
	mu      sync.Mutex
	urls    []string
	results map[string]PingResult
	seq     *[]string
}

func (p *fakePinger) Ping(_ context.Context, url string, _ int) PingResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, url)
	if p.seq != nil {
		*p.seq = append(*p.seq, "ping")
	}
	if r, ok := p.results[url]; ok {
		return r
	}
	return PingResult{Success: true, HTTPStatus: 200}
}

func (p *fakePinger) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.urls)
}

type fakeInvalidator struct {
	result bool
	calls  int
	seq    *[]string
}

func (i *fakeInvalidator) Invalidate(context.Context) bool {
	i.calls++
	if i.seq != nil {
		*i.seq = append(*i.seq, "invalidate")
	}
	return i.result
}

type recordingLog struct {
	mu       sync.Mutex
	channels []string
	messages []string
	err      error
}

func (l *recordingLog) Save(_ context.Context, channel, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.channels = append(l.channels, channel)
	l.messages = append(l.messages, message)
	return l.err
}

type fakeStore struct {
	exists      bool
	existsErr   error
	deleteErr   error
	deletePanic bool

	existsCalls int
	deleteCalls int
	deletedKeys []string
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.existsCalls++
	return s.exists, s.existsErr
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.deleteCalls++
	if s.deletePanic {
		panic("store exploded")
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedKeys = append(s.deletedKeys, key)
	s.exists = false
	return nil
}

func (s *fakeStore) touched() int { return s.existsCalls + s.deleteCalls }

var errBoom = errors.New("boom")
