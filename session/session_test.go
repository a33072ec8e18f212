package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jraweb/jraweb/client"
	"github.com/jraweb/jraweb/validate"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(ctx context.Context, username, password string) (*client.User, error) {
	args := m.Called(ctx, username, password)
	u, _ := args.Get(0).(*client.User)
	return u, args.Error(1)
}

func (m *mockAuth) Register(ctx context.Context, r validate.Registration) (*client.User, error) {
	args := m.Called(ctx, r)
	u, _ := args.Get(0).(*client.User)
	return u, args.Error(1)
}

var jane = &client.User{ID: 5, Name: "Jane Doe", Username: "jane123", LicenseNumber: "L-42", Token: "tok"}

func newStore(t *testing.T, storage Storage, auth Authenticator) *Store {
	t.Helper()
	s := New(storage, auth, nil)
	require.NoError(t, s.Init())
	t.Cleanup(s.Close)
	return s
}

type recorder struct {
	mu    sync.Mutex
	users []*User
}

func (r *recorder) fn(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, u)
}

func (r *recorder) snapshot() []*User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*User(nil), r.users...)
}

func TestInitAnonymous(t *testing.T) {
	s := newStore(t, NewMemoryStorage(), &mockAuth{})

	select {
	case <-s.Ready():
	default:
		t.Fatal("store not ready after Init")
	}
	assert.Equal(t, Anonymous, s.State())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestInitDiscardsCorruptSession(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(CurrentUserKey, []byte("{not json")))

	s := newStore(t, storage, &mockAuth{})
	assert.Equal(t, Anonymous, s.State())
}

func TestLoginPersistsAndNotifies(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, "jane123", "secret1").Return(jane, nil)
	storage := NewMemoryStorage()
	s := newStore(t, storage, auth)

	rec := &recorder{}
	s.Subscribe(rec.fn)

	u, err := s.Login(context.Background(), "jane123", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.Name)
	assert.Equal(t, Authenticated, s.State())

	_, ok, _ := storage.Load(CurrentUserKey)
	assert.True(t, ok)

	got := rec.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, "tok", got[0].Token)
	auth.AssertExpectations(t)
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, "jane123", "wrong").Return(nil, &client.APIError{Status: 401})
	storage := NewMemoryStorage()
	s := newStore(t, storage, auth)

	_, err := s.Login(context.Background(), "jane123", "wrong")
	require.Error(t, err)
	assert.Equal(t, Anonymous, s.State())
	_, ok, _ := storage.Load(CurrentUserKey)
	assert.False(t, ok)
}

func TestRegisterValidatesBeforeNetwork(t *testing.T) {
	auth := &mockAuth{}
	s := newStore(t, NewMemoryStorage(), auth)

	err := s.Register(context.Background(), validate.Registration{FullName: "J", Username: "ab", Password: "123"})
	var fe validate.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe, 4)
	auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterDoesNotLogIn(t *testing.T) {
	reg := validate.Registration{FullName: "Jane Doe", Username: "jane123", Password: "secret1", LicenseNumber: "L-42"}
	auth := &mockAuth{}
	auth.On("Register", mock.Anything, reg).Return(&client.User{ID: 5}, nil).Once()
	auth.On("Register", mock.Anything, reg).Return(nil, client.ErrConflict).Once()
	s := newStore(t, NewMemoryStorage(), auth)

	require.NoError(t, s.Register(context.Background(), reg))
	assert.Equal(t, Anonymous, s.State())

	err := s.Register(context.Background(), reg)
	assert.ErrorIs(t, err, client.ErrConflict)
	auth.AssertExpectations(t)
}

func TestLogout(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(jane, nil)
	storage := NewMemoryStorage()
	s := newStore(t, storage, auth)
	rec := &recorder{}
	cancel := s.Subscribe(rec.fn)

	_, err := s.Login(context.Background(), "jane123", "secret1")
	require.NoError(t, err)
	require.NoError(t, s.Logout())
	assert.Equal(t, Anonymous, s.State())

	got := rec.snapshot()
	require.Len(t, got, 2)
	assert.Nil(t, got[1])

	cancel()
	_, err = s.Login(context.Background(), "jane123", "secret1")
	require.NoError(t, err)
	assert.Len(t, rec.snapshot(), 2)
}

func TestSharedMemoryStorageSyncsStores(t *testing.T) {
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(jane, nil)
	storage := NewMemoryStorage()
	a := newStore(t, storage, auth)
	b := newStore(t, storage, auth)

	rec := &recorder{}
	b.Subscribe(rec.fn)

	_, err := a.Login(context.Background(), "jane123", "secret1")
	require.NoError(t, err)
	u, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "jane123", u.Username)

	require.NoError(t, a.Logout())
	assert.Equal(t, Anonymous, b.State())
	assert.Len(t, rec.snapshot(), 2)
}

func TestFileStorageSyncsStores(t *testing.T) {
	dir := t.TempDir()
	auth := &mockAuth{}
	auth.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(jane, nil)

	fa, err := NewFileStorage(dir, nil)
	require.NoError(t, err)
	fb, err := NewFileStorage(dir, nil)
	require.NoError(t, err)
	a := newStore(t, fa, auth)
	b := newStore(t, fb, auth)

	_, err = a.Login(context.Background(), "jane123", "secret1")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return b.State() == Authenticated }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Logout())
	assert.Eventually(t, func() bool { return b.State() == Anonymous }, 2*time.Second, 10*time.Millisecond)

	// a fresh store picks up whatever is on disk
	_, err = a.Login(context.Background(), "jane123", "secret1")
	require.NoError(t, err)
	c := newStore(t, fb, auth)
	u, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, int64(5), u.ID)
}

func TestFileStorageRoundTrip(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir(), nil)
	require.NoError(t, err)

	_, ok, err := fs.Load("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Save("k", []byte(`{"id":1}`)))
	b, ok, err := fs.Load("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, string(b))

	require.NoError(t, fs.Remove("k"))
	require.NoError(t, fs.Remove("k"))
	_, ok, _ = fs.Load("k")
	assert.False(t, ok)
}
