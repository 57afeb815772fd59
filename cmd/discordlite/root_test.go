package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/store"
	"github.com/parsascontentcorner/discordlite/internal/testutil"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_FILE", filepath.Join(dir, "test.log"))
	t.Setenv("TOKEN_ENCRYPTION_KEY", "")
	return dir
}

func TestLogoutCommand_ClearsSavedCredentials(t *testing.T) {
	dir := setupEnv(t)

	// Remember credentials the way the UI does
	kv, err := store.Open(filepath.Join(dir, "discordlite.db"), zap.NewNop())
	require.NoError(t, err)
	key, err := store.LoadOrCreateKey(filepath.Join(dir, "token.key"))
	require.NoError(t, err)
	cipher, err := store.NewCipher(key)
	require.NoError(t, err)
	creds := testutil.GenerateCredentials()
	require.NoError(t, store.NewCredentialStore(kv, cipher, time.Hour, zap.NewNop()).Save(context.Background(), creds))
	require.NoError(t, kv.Close())

	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"logout"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Saved credentials removed.")

	kv, err = store.Open(filepath.Join(dir, "discordlite.db"), zap.NewNop())
	require.NoError(t, err)
	defer kv.Close()
	_, err = store.NewCredentialStore(kv, cipher, time.Hour, zap.NewNop()).Load(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)

	info, err := os.Stat(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestRootCommand_InvalidLogLevel(t *testing.T) {
	setupEnv(t)

	cmd := NewRootCmd("test")
	cmd.SetArgs([]string{"logout", "--log-level", "verbose"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestRootCommand_Version(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd("1.2.3")
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "discordlite version 1.2.3\n", out.String())
}
