package store

import (
	"path/filepath"
	"testing"

	"github.com/duskrelay/dnsforward/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SetThenGet(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set(KeyUpstreamAddr, "1.1.1.1:53"))

	v, ok, err := s.Get(KeyUpstreamAddr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1.1.1.1:53", v)
}

func TestStore_GetMissingKey(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get("nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SetOverwrites(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set(KeyUDPListen, "0.0.0.0:3553"))
	require.NoError(t, s.Set(KeyUDPListen, "0.0.0.0:9999"))

	v, ok, err := s.Get(KeyUDPListen)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:9999", v)
}

func TestStore_SaveConfigThenApplyTo(t *testing.T) {
	s := openTestStore(t)
	saved := &config.Config{
		UpstreamAddr:      "8.8.8.8:53",
		UDPListen:         "0.0.0.0:53",
		DoHListen:         "127.0.0.1:8443",
		UpstreamTimeoutMS: 1500,
		Logging:           config.LoggingConfig{Level: "debug"},
	}
	require.NoError(t, s.SaveConfig(saved))

	loaded := &config.Config{
		UpstreamAddr:      "9.9.9.9:53",
		UDPListen:         "0.0.0.0:3553",
		DoHListen:         "127.0.0.1:4443",
		UpstreamTimeoutMS: 2000,
	}
	require.NoError(t, s.ApplyTo(loaded))

	assert.Equal(t, saved.UpstreamAddr, loaded.UpstreamAddr)
	assert.Equal(t, saved.UDPListen, loaded.UDPListen)
	assert.Equal(t, saved.DoHListen, loaded.DoHListen)
	assert.Equal(t, saved.UpstreamTimeoutMS, loaded.UpstreamTimeoutMS)
	assert.Equal(t, "debug", loaded.Logging.Level)
}

func TestStore_ApplyToLeavesUnsetFieldsAlone(t *testing.T) {
	s := openTestStore(t)
	cfg := &config.Config{UpstreamAddr: "9.9.9.9:53"}
	require.NoError(t, s.ApplyTo(cfg))
	assert.Equal(t, "9.9.9.9:53", cfg.UpstreamAddr)
}
