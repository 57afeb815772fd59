package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "discordlite.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// clock lets tests move the store's notion of now
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// ============================================================================
// Open & Migration Tests
// ============================================================================

func TestOpen_CreatesDatabaseAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "discordlite.db")

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.NoError(t, s.Health(context.Background()))
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discordlite.db")
	ctx := context.Background()

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", "v", 0))
	require.NoError(t, s.Close())

	// Migrations already applied; must be a no-op
	s, err = Open(path, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	entry, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", entry.Value)
}

// ============================================================================
// Key/Value Tests
// ============================================================================

func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "theme", "dark", 0))
	entry, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", entry.Value)
	assert.Nil(t, entry.ExpiresAt)

	require.NoError(t, s.Put(ctx, "theme", "light", time.Hour))
	entry, err = s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", entry.Value)
	require.NotNil(t, entry.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *entry.ExpiresAt, 5*time.Second)
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_ExpiredIsDeleted(t *testing.T) {
	s := newTestStore(t)
	c := &clock{t: time.Now()}
	s.now = c.now
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "token", "secret", time.Minute))
	c.advance(time.Minute)

	_, err := s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	// Rewinding the clock must not bring it back
	c.advance(-time.Hour)
	_, err = s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "a", "1", 0))
	require.NoError(t, s.Put(ctx, "b", "2", 0))

	require.NoError(t, s.Delete(ctx, "a", "b", "missing"))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeExpired(t *testing.T) {
	s := newTestStore(t)
	c := &clock{t: time.Now()}
	s.now = c.now
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "short", "1", time.Minute))
	require.NoError(t, s.Put(ctx, "long", "2", time.Hour))
	require.NoError(t, s.Put(ctx, "forever", "3", 0))
	c.advance(2 * time.Minute)

	n, err := s.PurgeExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = s.Get(ctx, "long")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "forever")
	assert.NoError(t, err)
}

// ============================================================================
// Crypto Tests
// ============================================================================

func TestCipher_RoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := NewCipher(key)
	require.NoError(t, err)

	encrypted, err := c.Encrypt("bot-token")
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "bot-token")

	again, err := c.Encrypt("bot-token")
	require.NoError(t, err)
	assert.NotEqual(t, encrypted, again, "nonces must differ")

	plain, err := c.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "bot-token", plain)
}

func TestCipher_Errors(t *testing.T) {
	_, err := NewCipher([]byte("short"))
	assert.Error(t, err)

	c, err := NewCipher(make([]byte, KeySize))
	require.NoError(t, err)

	_, err = c.Decrypt("!!!not base64")
	assert.Error(t, err)
	_, err = c.Decrypt("AAAA")
	assert.Error(t, err, "too short for a nonce")

	other, err := NewCipher(append(make([]byte, KeySize-1), 1))
	require.NoError(t, err)
	encrypted, err := other.Encrypt("secret")
	require.NoError(t, err)
	_, err = c.Decrypt(encrypted)
	assert.Error(t, err, "wrong key must fail authentication")
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "token.key")

	key, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrCreateKey_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.key")

	require.NoError(t, os.WriteFile(path, []byte("zz"), 0o600))
	_, err := LoadOrCreateKey(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("abcd"), 0o600))
	_, err = LoadOrCreateKey(path)
	assert.Error(t, err)
}

// ============================================================================
// Credential Store Tests
// ============================================================================

func newCredentialStore(t *testing.T, s *Store) *CredentialStore {
	t.Helper()
	key := make([]byte, KeySize)
	key[0] = 7
	c, err := NewCipher(key)
	require.NoError(t, err)
	return NewCredentialStore(s, c, 30*24*time.Hour, zap.NewNop())
}

func testCredentials(t *testing.T) models.Credentials {
	t.Helper()
	creds, err := models.NewCredentials("MTEwMDAwMDAwMDAwMDAwMDAwMQ.GtEsT0.abcdefghijklmnopqrstuvwxyz0123456789", "1000000000000000001")
	require.NoError(t, err)
	return creds
}

func TestCredentialStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	cs := newCredentialStore(t, s)
	ctx := context.Background()
	creds := testCredentials(t)

	require.NoError(t, cs.Save(ctx, creds))

	raw, err := s.Get(ctx, KeyBotToken)
	require.NoError(t, err)
	assert.NotEqual(t, creds.BotToken, raw.Value, "token must be encrypted at rest")

	saved, err := cs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, creds, saved.Credentials)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), saved.ExpiresAt, time.Minute)
}

func TestCredentialStore_Expire(t *testing.T) {
	s := newTestStore(t)
	c := &clock{t: time.Now()}
	s.now = c.now
	cs := newCredentialStore(t, s)
	ctx := context.Background()

	require.NoError(t, cs.Save(ctx, testCredentials(t)))
	c.advance(30*24*time.Hour + time.Second)

	_, err := cs.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCredentialStore_NothingSaved(t *testing.T) {
	cs := newCredentialStore(t, newTestStore(t))

	_, err := cs.Load(context.Background())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCredentialStore_CorruptTokenDiscarded(t *testing.T) {
	s := newTestStore(t)
	cs := newCredentialStore(t, s)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, KeyBotToken, "garbage", time.Hour))
	require.NoError(t, s.Put(ctx, KeyServerID, "1000000000000000001", time.Hour))

	_, err := cs.Load(ctx)

	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, KeyServerID)
	assert.ErrorIs(t, err, ErrNotFound, "unusable credentials are removed")
}

func TestCredentialStore_Clear(t *testing.T) {
	s := newTestStore(t)
	cs := newCredentialStore(t, s)
	ctx := context.Background()
	require.NoError(t, cs.Save(ctx, testCredentials(t)))

	require.NoError(t, cs.Clear(ctx))

	_, err := cs.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

// ============================================================================
// Settings Store Tests
// ============================================================================

func TestSettingsStore(t *testing.T) {
	s := newTestStore(t)
	ss := NewSettingsStore(s, zap.NewNop())
	ctx := context.Background()

	loaded, err := ss.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), loaded)

	custom := models.DefaultSettings()
	custom.Theme = models.ThemeLight
	custom.CompactMode = true
	custom.FontSize = 20
	require.NoError(t, ss.Save(ctx, custom))

	loaded, err = ss.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, loaded)

	entry, err := s.Get(ctx, KeySettings)
	require.NoError(t, err)
	assert.Nil(t, entry.ExpiresAt, "settings never expire")
}

func TestSettingsStore_SaveRejectsInvalid(t *testing.T) {
	ss := NewSettingsStore(newTestStore(t), zap.NewNop())

	bad := models.DefaultSettings()
	bad.FontSize = 99

	err := ss.Save(context.Background(), bad)
	assert.True(t, models.IsValidationError(err))
}

func TestSettingsStore_CorruptFallsBackToDefaults(t *testing.T) {
	s := newTestStore(t)
	ss := NewSettingsStore(s, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, KeySettings, "{not json", 0))

	loaded, err := ss.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), loaded)
}

func TestSettingsStore_SurvivesCredentialClear(t *testing.T) {
	s := newTestStore(t)
	ss := NewSettingsStore(s, zap.NewNop())
	cs := newCredentialStore(t, s)
	ctx := context.Background()

	custom := models.DefaultSettings()
	custom.AccentColor = "#ff0000"
	require.NoError(t, ss.Save(ctx, custom))
	require.NoError(t, cs.Save(ctx, testCredentials(t)))
	require.NoError(t, cs.Clear(ctx))

	loaded, err := ss.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", loaded.AccentColor)
}
