package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Storage persists small values by key and reports changes made by other
// holders of the same storage.
type Storage interface {
	// Load returns the stored value and whether it exists.
	Load(key string) ([]byte, bool, error)
	Save(key string, data []byte) error
	Remove(key string) error
	// Watch calls fn after key changes. The returned func stops watching.
	Watch(key string, fn func()) (func(), error)
}

// MemoryStorage is an in-process Storage. Every Save or Remove notifies all
// watchers of the key.
type MemoryStorage struct {
	mu       sync.Mutex
	values   map[string][]byte
	watchers map[string]map[int]func()
	next     int
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values:   map[string][]byte{},
		watchers: map[string]map[int]func(){},
	}
}

func (m *MemoryStorage) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStorage) Save(key string, data []byte) error {
	m.mu.Lock()
	m.values[key] = append([]byte(nil), data...)
	fns := m.listeners(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	delete(m.values, key)
	fns := m.listeners(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (m *MemoryStorage) listeners(key string) []func() {
	fns := make([]func(), 0, len(m.watchers[key]))
	for _, fn := range m.watchers[key] {
		fns = append(fns, fn)
	}
	return fns
}

func (m *MemoryStorage) Watch(key string, fn func()) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watchers[key] == nil {
		m.watchers[key] = map[int]func(){}
	}
	id := m.next
	m.next++
	m.watchers[key][id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.watchers[key], id)
	}, nil
}

// FileStorage keeps one JSON file per key in a directory and watches the
// directory so changes written by other processes are observed.
type FileStorage struct {
	dir string
	log *zap.Logger
}

// NewFileStorage creates dir if needed.
func NewFileStorage(dir string, logger *zap.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStorage{dir: dir, log: logger}, nil
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileStorage) Load(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Save writes through a temp file and rename so readers never see a partial value.
func (f *FileStorage) Save(key string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+key+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

func (f *FileStorage) Remove(key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (f *FileStorage) Watch(key string, fn func()) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(f.dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	target := filepath.Clean(f.path(key))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					fn()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.log.Warn("session watch error", zap.String("dir", f.dir), zap.Error(err))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = w.Close()
			<-done
		})
	}, nil
}
