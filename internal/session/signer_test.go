package session

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swassyman/heart/internal/contracts"
)

var testKey = bytes.Repeat([]byte("k"), MinKeyBytes)

func TestSigner_RoundTrip(t *testing.T) {
	signer, err := NewSigner(testKey, time.Hour)
	require.NoError(t, err)
	alice := contracts.User{ID: "u1", Name: "Alice Buyer", Role: contracts.RoleBuyer}

	token, err := signer.Issue(alice)
	require.NoError(t, err)

	got, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "Alice Buyer", got.Name)
	assert.Equal(t, contracts.RoleBuyer, got.Role)
	assert.Equal(t, token, got.Token)
}

func TestSigner_Rejects(t *testing.T) {
	clock := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	signer, err := NewSigner(testKey, time.Hour)
	require.NoError(t, err)
	signer = signer.WithClock(func() time.Time { return clock })

	alice := contracts.User{ID: "u1", Name: "Alice Buyer", Role: contracts.RoleBuyer}
	token, err := signer.Issue(alice)
	require.NoError(t, err)

	unsigned, err := IssueToken(contracts.User{ID: "u1", Name: "Mallory", Role: contracts.RoleBuilder})
	require.NoError(t, err)

	other, err := NewSigner(bytes.Repeat([]byte("x"), MinKeyBytes), time.Hour)
	require.NoError(t, err)
	foreign, err := other.WithClock(func() time.Time { return clock }).Issue(alice)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forgedRole, err := signer.Issue(contracts.User{ID: "u1", Name: "Alice Buyer", Role: contracts.RoleBuilder})
	require.NoError(t, err)
	spliced := strings.Join([]string{parts[0], strings.Split(forgedRole, ".")[1], parts[2]}, ".")

	cases := map[string]string{
		"empty":             "",
		"unsigned envelope": unsigned,
		"foreign key":       foreign,
		"swapped payload":   spliced,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := signer.Verify(tok)
			assert.ErrorIs(t, err, contracts.ErrValidation)
		})
	}

	expired := signer.WithClock(func() time.Time { return clock.Add(2 * time.Hour) })
	_, err = expired.Verify(token)
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestNewSigner_Validation(t *testing.T) {
	_, err := NewSigner([]byte("short"), time.Hour)
	assert.Error(t, err)
	_, err = NewSigner(testKey, 0)
	assert.Error(t, err)

	signer, err := NewSigner(testKey, time.Hour)
	require.NoError(t, err)
	_, err = signer.Issue(contracts.User{ID: "u9", Name: "Nobody", Role: "ADMIN"})
	assert.ErrorIs(t, err, contracts.ErrValidation)
}
