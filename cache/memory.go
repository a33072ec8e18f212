package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process cache with a background sweep of expired keys.
type Memory struct {
	items  sync.Map
	ticker *time.Ticker
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewMemory starts a memory cache sweeping every interval.
func NewMemory(interval time.Duration) *Memory {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Memory{
		ticker: time.NewTicker(interval),
		cancel: cancel,
		now:    time.Now,
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-m.ticker.C:
				m.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
	return m
}

func (m *Memory) sweep() {
	now := m.now()
	m.items.Range(func(key, value any) bool {
		if now.After(value.(*memoryItem).expires) {
			m.items.Delete(key)
		}
		return true
	})
}

func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	value, ok := m.items.Load(key)
	if !ok {
		return false, nil
	}
	item := value.(*memoryItem)
	if m.now().After(item.expires) {
		m.items.Delete(key)
		return false, nil
	}
	if err := json.Unmarshal(item.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items.Store(key, &memoryItem{value: b, expires: m.now().Add(ttl)})
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.items.Delete(k)
	}
	return nil
}

// Close stops the sweep worker.
func (m *Memory) Close() error {
	m.cancel()
	m.ticker.Stop()
	m.wg.Wait()
	return nil
}
