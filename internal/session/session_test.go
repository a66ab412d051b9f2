package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swassyman/heart/internal/contracts"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, &contracts.TransportError{Op: "get", Err: errors.New("down")}
}
func (failingStore) Set(context.Context, string, string) error {
	return &contracts.TransportError{Op: "set", Err: errors.New("down")}
}
func (failingStore) Delete(context.Context, string) error {
	return &contracts.TransportError{Op: "delete", Err: errors.New("down")}
}

func TestToken_RoundTrip(t *testing.T) {
	user := contracts.User{ID: "u1", Name: "Alice Buyer", Role: contracts.RoleBuyer, Token: "ignored"}
	token, err := IssueToken(user)
	require.NoError(t, err)

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", decoded.ID)
	assert.Equal(t, "Alice Buyer", decoded.Name)
	assert.Equal(t, contracts.RoleBuyer, decoded.Role)
	assert.Equal(t, token, decoded.Token)
}

func TestDecodeToken_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"not json", "bm90IGpzb24="},
		{"unknown role", "eyJpZCI6InUxIiwibmFtZSI6IkEiLCJyb2xlIjoiQURNSU4iLCJ0b2tlbiI6IiJ9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeToken(tt.token)
			assert.ErrorIs(t, err, contracts.ErrValidation)
		})
	}
}

func testLifecycle(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	s := New(store, nil)

	_, ok, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	user, err := s.Login(ctx, contracts.RoleInspector, " Ivy Inspector ", "")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ivy Inspector", user.Name)
	assert.NotEmpty(t, user.Token)

	restored, ok, err := New(store, nil).Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user, restored)

	require.NoError(t, s.Logout(ctx))
	_, ok = s.Current()
	assert.False(t, ok)
	_, ok, err = New(store, nil).Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_MemoryStore(t *testing.T) {
	testLifecycle(t, NewMemoryStore())
}

func TestSession_FileStore(t *testing.T) {
	testLifecycle(t, NewFileStore(t.TempDir()))
}

func TestSession_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "", time.Hour)
	testLifecycle(t, store)

	_, err := New(store, nil).Login(context.Background(), contracts.RoleBuyer, "Alice Buyer", "u1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("heart:session:"+DefaultKey))
	assert.Equal(t, time.Hour, mr.TTL("heart:session:"+DefaultKey))
}

func TestSession_CorruptTokenDegradesToNoSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, DefaultKey, "definitely-not-a-token"))

	s := New(store, nil)
	_, ok, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, present, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestSession_LoginValidates(t *testing.T) {
	s := New(NewMemoryStore(), nil)
	_, err := s.Login(context.Background(), "ADMIN", "Mallory", "")
	assert.ErrorIs(t, err, contracts.ErrValidation)

	_, err = s.Login(context.Background(), contracts.RoleBuyer, "  ", "")
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestSession_StoreFailureSurfaces(t *testing.T) {
	s := New(failingStore{}, nil)
	_, err := s.Login(context.Background(), contracts.RoleBuyer, "Alice Buyer", "u1")
	assert.ErrorIs(t, err, contracts.ErrTransport)

	_, ok, err := s.Restore(context.Background())
	assert.ErrorIs(t, err, contracts.ErrTransport)
	assert.False(t, ok)
}
