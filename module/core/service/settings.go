package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/module/core/internal/repository/database"
)

// SettingsService persists settings through the repository on its own worker, so
// reads observe earlier writes, and delivers results back onto the loop.
// Queueing never blocks: the worker may itself be waiting to post onto the loop.
type SettingsService struct {
	repo     database.SettingsRepository
	post     func(func())
	defaults domain.Settings
	timeout  time.Duration
	wake     chan struct{}

	mu        sync.Mutex
	queue     []func(ctx context.Context)
	listeners []func(name string, value any)
}

func NewSettingsService(repo database.SettingsRepository, post func(func()), defaults domain.Settings, timeout time.Duration) *SettingsService {
	return &SettingsService{
		repo:     repo,
		post:     post,
		defaults: defaults,
		timeout:  timeout,
		wake:     make(chan struct{}, 1),
	}
}

// Run executes queued reads and writes in order until ctx is done.
func (s *SettingsService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.Lock()
		ops := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, op := range ops {
			if ctx.Err() != nil {
				return
			}
			opCtx, cancel := context.WithTimeout(ctx, s.timeout)
			op(opCtx)
			cancel()
		}
	}
}

func (s *SettingsService) enqueue(op func(ctx context.Context)) {
	s.mu.Lock()
	s.queue = append(s.queue, op)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// OnChange registers fn for change notifications. fn runs on the loop.
func (s *SettingsService) OnChange(fn func(name string, value any)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *SettingsService) GetState(onSuccess func(domain.Settings), onFailure func(error)) {
	s.enqueue(func(ctx context.Context) {
		settings, err := s.load(ctx)
		s.post(func() {
			if err != nil {
				onFailure(err)
				return
			}
			onSuccess(settings)
		})
	})
}

func (s *SettingsService) Set(key string, value any) {
	s.enqueue(func(ctx context.Context) {
		raw, err := json.Marshal(value)
		if err != nil {
			log.Printf("encode setting %s: %v", key, err)
			return
		}
		if err := s.repo.Save(ctx, key, raw); err != nil {
			log.Printf("save setting %s: %v", key, err)
			return
		}
		s.notify(key, value)
	})
}

func (s *SettingsService) load(ctx context.Context) (domain.Settings, error) {
	stored, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	settings := s.defaults
	for key, raw := range stored {
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			log.Printf("decode setting %s: %v", key, err)
			continue
		}
		next, ok := settings.With(key, value)
		if !ok {
			log.Printf("ignoring stored setting %s=%s", key, raw)
			continue
		}
		settings = next
	}
	return settings, nil
}

func (s *SettingsService) notify(name string, value any) {
	s.mu.Lock()
	listeners := append([]func(string, any){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn := fn
		s.post(func() { fn(name, value) })
	}
}
