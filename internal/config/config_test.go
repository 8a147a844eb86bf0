package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9.9.9.9:53", cfg.UpstreamAddr)
	assert.Equal(t, "0.0.0.0:3553", cfg.UDPListen)
	assert.Equal(t, "127.0.0.1:4443", cfg.DoHListen)
	assert.Equal(t, 2000, cfg.UpstreamTimeoutMS)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DNSFWD_UPSTREAM_ADDR", "1.1.1.1:53")
	t.Setenv("DNSFWD_UPSTREAM_TIMEOUT_MS", "500")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1:53", cfg.UpstreamAddr)
	assert.Equal(t, 500, cfg.UpstreamTimeoutMS)
}

func TestValidate_RejectsEmptyUpstream(t *testing.T) {
	cfg := &Config{UDPListen: "x", DoHListen: "y", UpstreamTimeoutMS: 1}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveTimeout(t *testing.T) {
	cfg := &Config{UpstreamAddr: "x", UDPListen: "y", DoHListen: "z", UpstreamTimeoutMS: 0}
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
