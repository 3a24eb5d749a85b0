package lcu

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLockfile(t *testing.T, path string, port int, password string) {
	t.Helper()
	contents := fmt.Sprintf("LeagueClient:4242:%d:%s:https", port, password)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

func TestParseLockfile(t *testing.T) {
	creds, err := ParseLockfile("LeagueClient:12345:54321:s3cr3t-token:https\n")
	require.NoError(t, err)

	assert.Equal(t, "LeagueClient", creds.ProcessName)
	assert.Equal(t, 12345, creds.PID)
	assert.Equal(t, 54321, creds.Port)
	assert.Equal(t, "s3cr3t-token", creds.Password)
	assert.Equal(t, "https", creds.Protocol)
	assert.Equal(t, "https://127.0.0.1:54321", creds.BaseURL())
}

func TestParseLockfile_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"empty", ""},
		{"too few fields", "LeagueClient:1:2"},
		{"bad pid", "LeagueClient:abc:54321:pw:https"},
		{"bad port", "LeagueClient:1:port:pw:https"},
		{"port out of range", "LeagueClient:1:70000:pw:https"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLockfile(tt.contents)
			assert.Error(t, err)
		})
	}
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		cmdline string
		pid     int
	}{
		{
			name:    "windows",
			cmdline: `"C:/Riot Games/League of Legends/LeagueClientUx.exe" "--app-port=54321" "--remoting-auth-token=abc123def456" "--app-pid=9876"`,
			pid:     9876,
		},
		{
			name:    "macos",
			cmdline: `/Applications/League of Legends.app/Contents/LoL/LeagueClientUx --app-port=54321 --remoting-auth-token=abc123def456 --other`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := ParseCommandLine(tt.cmdline)
			require.NoError(t, err)
			assert.Equal(t, 54321, creds.Port)
			assert.Equal(t, "abc123def456", creds.Password)
			assert.Equal(t, "https", creds.Protocol)
			assert.Equal(t, tt.pid, creds.PID)
		})
	}
}

func TestParseCommandLine_Missing(t *testing.T) {
	_, err := ParseCommandLine("LeagueClientUx --remoting-auth-token=abc")
	assert.Error(t, err)

	_, err = ParseCommandLine("LeagueClientUx --app-port=54321")
	assert.Error(t, err)
}

func TestDefaultLockfilePaths_InstallDirFirst(t *testing.T) {
	paths := DefaultLockfilePaths("/games/lol")
	require.NotEmpty(t, paths)
	assert.Equal(t, filepath.Join("/games/lol", "lockfile"), paths[0])
}

func TestCredentialStore_CachesUntilInvalidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockfile")
	writeLockfile(t, path, 50001, "first")

	store := NewCredentialStore(StoreConfig{LockfilePath: path})
	ctx := context.Background()

	creds, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50001, creds.Port)

	writeLockfile(t, path, 50002, "second")
	creds, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50001, creds.Port, "cached credentials should be reused")

	store.Invalidate()
	creds, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50002, creds.Port)
	assert.Equal(t, "second", creds.Password)
}

func TestCredentialStore_NotRunning(t *testing.T) {
	store := NewCredentialStore(StoreConfig{LockfilePath: filepath.Join(t.TempDir(), "lockfile")})

	_, err := store.Get(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestCredentialStore_WatchInvalidatesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockfile")
	writeLockfile(t, path, 50001, "first")

	store := NewCredentialStore(StoreConfig{LockfilePath: path})
	creds, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 50001, creds.Port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()

	// Keep rewriting until the watcher is registered and has seen a write.
	require.Eventually(t, func() bool {
		writeLockfile(t, path, 50002, "second")
		creds, err := store.Get(context.Background())
		return err == nil && creds.Port == 50002
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
