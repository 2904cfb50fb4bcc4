package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dton04/hoterier-cli/internal/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	rec := Record{
		UserID:         "u1",
		Role:           models.RoleStaff,
		Token:          "tok",
		SupportAdminID: "a1",
	}
	require.NoError(t, store.Save(rec))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)

	identity := loaded.Identity()
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, models.RoleStaff, identity.Role)
	assert.False(t, identity.Anonymous())
}

func TestFileStoreMissingRecordIsAnonymous(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	rec, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Record{}, rec)
	assert.True(t, rec.Identity().Anonymous())
}

func TestFileStoreCorruptRecordErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	require.NoError(t, store.Save(Record{UserID: "u1", Token: "tok"}))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear()) // idempotent

	rec, err := store.Load()
	require.NoError(t, err)
	assert.True(t, rec.Identity().Anonymous())
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestIdentityFromToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"userID": "u1", "role": "staff"})

	identity, err := IdentityFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, models.RoleStaff, identity.Role)
	assert.Equal(t, token, identity.Token)
}

func TestIdentityFromTokenAlternateClaimKeys(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		wantID string
	}{
		{"sub claim", jwt.MapClaims{"sub": "u2"}, "u2"},
		{"id claim", jwt.MapClaims{"id": "u3"}, "u3"},
		{"userId claim", jwt.MapClaims{"userId": "u4"}, "u4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := IdentityFromToken(signedToken(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, identity.UserID)
			// Role defaults to plain user when the claim is absent.
			assert.Equal(t, models.RoleUser, identity.Role)
		})
	}
}

func TestIdentityFromTokenRejectsGarbage(t *testing.T) {
	_, err := IdentityFromToken("not-a-jwt")
	assert.Error(t, err)

	_, err = IdentityFromToken(signedToken(t, jwt.MapClaims{"role": "user"}))
	assert.Error(t, err)
}
