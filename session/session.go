// Package session holds the current identity on the client side and keeps it
// in sync with persisted storage shared by other running clients.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/jraweb/jraweb/client"
	"github.com/jraweb/jraweb/validate"
)

// CurrentUserKey is the storage key holding the persisted identity.
const CurrentUserKey = "currentUser"

// State is the identity state.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// User is the persisted identity record.
type User struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	LicenseNumber string `json:"license_number,omitempty"`
	Token         string `json:"token,omitempty"`
}

// Authenticator performs the network side of login and registration.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*client.User, error)
	Register(ctx context.Context, r validate.Registration) (*client.User, error)
}

// Store is the identity state machine. Subscribers are called with the new
// user (nil when anonymous) after every transition, including ones caused
// by another client writing the shared storage.
type Store struct {
	storage Storage
	auth    Authenticator
	log     *zap.Logger

	mu        sync.RWMutex
	user      *User
	subs      map[int]func(*User)
	nextSub   int
	stopWatch func()

	ready     chan struct{}
	readyOnce sync.Once
}

// New returns an uninitialized store. Call Init before use.
func New(storage Storage, auth Authenticator, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		storage: storage,
		auth:    auth,
		log:     logger,
		subs:    map[int]func(*User){},
		ready:   make(chan struct{}),
	}
}

// Init loads the persisted identity, starts watching storage and marks the
// store ready. Ready is closed even when loading fails.
func (s *Store) Init() error {
	defer s.readyOnce.Do(func() { close(s.ready) })

	u, err := s.load()
	if err != nil {
		s.log.Warn("discarding unreadable session", zap.Error(err))
		u = nil
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()

	stop, err := s.storage.Watch(CurrentUserKey, s.sync)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.stopWatch = stop
	s.mu.Unlock()
	return nil
}

// Ready is closed once Init has run.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Close stops watching storage.
func (s *Store) Close() {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Current returns a copy of the current user.
func (s *Store) Current() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// State reports Anonymous or Authenticated.
func (s *Store) State() State {
	if _, ok := s.Current(); ok {
		return Authenticated
	}
	return Anonymous
}

// Login authenticates and persists the identity. On failure the state is
// left unchanged and the error wraps client.ErrInvalidCredentials when the
// credentials did not match.
func (s *Store) Login(ctx context.Context, username, password string) (User, error) {
	cu, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return User{}, err
	}
	u := &User{
		ID:            cu.ID,
		Name:          cu.Name,
		Username:      cu.Username,
		LicenseNumber: cu.LicenseNumber,
		Token:         cu.Token,
	}
	b, err := json.Marshal(u)
	if err != nil {
		return User{}, err
	}
	if err := s.storage.Save(CurrentUserKey, b); err != nil {
		return User{}, err
	}
	s.set(u)
	return *u, nil
}

// Register validates locally, then creates the account. It never logs in.
func (s *Store) Register(ctx context.Context, r validate.Registration) error {
	if err := r.Check(); err != nil {
		return err
	}
	_, err := s.auth.Register(ctx, r)
	return err
}

// Logout clears the persisted identity.
func (s *Store) Logout() error {
	if err := s.storage.Remove(CurrentUserKey); err != nil {
		return err
	}
	s.set(nil)
	return nil
}

// Subscribe registers fn for identity changes. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(*User)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) load() (*User, error) {
	b, ok, err := s.storage.Load(CurrentUserKey)
	if err != nil || !ok {
		return nil, err
	}
	u := &User{}
	if err := json.Unmarshal(b, u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, errors.New("session has no user id")
	}
	return u, nil
}

// sync mirrors a storage change into memory. Last write wins.
func (s *Store) sync() {
	u, err := s.load()
	if err != nil {
		s.log.Warn("ignoring unreadable session change", zap.Error(err))
		return
	}
	s.set(u)
}

// set replaces the user and notifies subscribers when it changed.
func (s *Store) set(u *User) {
	s.mu.Lock()
	if reflect.DeepEqual(s.user, u) {
		s.mu.Unlock()
		return
	}
	s.user = u
	fns := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		if u == nil {
			fn(nil)
			continue
		}
		cp := *u
		fn(&cp)
	}
}
