package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/store"
)

// TestStores bundles a migrated temp-dir database with the stores built on it.
type TestStores struct {
	KV          *store.Store
	Credentials *store.CredentialStore
	Settings    *store.SettingsStore
}

// SetupTestStore opens a SQLite database in t.TempDir(), runs migrations and
// returns the credential and settings stores. The database is closed when
// the test ends.
//
// Usage:
//
//	stores := testutil.SetupTestStore(t)
//	require.NoError(t, stores.Credentials.Save(ctx, creds))
func SetupTestStore(t *testing.T) *TestStores {
	t.Helper()

	logger := zap.NewNop()
	kv, err := store.Open(filepath.Join(t.TempDir(), "discordlite.db"), logger)
	require.NoError(t, err, "failed to open test store")
	t.Cleanup(func() {
		if err := kv.Close(); err != nil {
			t.Logf("failed to close test store: %v", err)
		}
	})

	cipher, err := store.NewCipher(GenerateEncryptionKey())
	require.NoError(t, err, "failed to create cipher")

	return &TestStores{
		KV:          kv,
		Credentials: store.NewCredentialStore(kv, cipher, 30*24*time.Hour, logger),
		Settings:    store.NewSettingsStore(kv, logger),
	}
}
