// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("testdata/padctl.toml")
	require.NoError(t, err)
	assert.Equal(t, "https://pad.example.org", cfg.Endpoints.BaseURL)
	assert.Equal(t, "wss://pad.example.org/cryptpad_websocket", cfg.Endpoints.WebSocketURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Console)
	assert.Equal(t, 7000, cfg.Timeouts.History)
	assert.Equal(t, 0, cfg.Timeouts.SendAck)
	assert.Equal(t, 15000, cfg.Timeouts.RPC)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Relay.HistoryKeeper)
}

func TestEndpointsMandatory(t *testing.T) {
	_, err := Load([]byte("[Endpoints]\nWebSocketURL = \"ws://localhost\"\n"))
	require.ErrorIs(t, err, ErrNoBaseURL)
	_, err = Load([]byte("[Endpoints]\nBaseURL = \"http://localhost\"\n"))
	require.ErrorIs(t, err, ErrNoWebSocketURL)
}

func TestInvalid(t *testing.T) {
	for _, body := range []string{
		"[Endpoints]\nBaseURL = \"ftp://x\"\nWebSocketURL = \"ws://x\"\n",
		"[Endpoints]\nBaseURL = \"http://x\"\nWebSocketURL = \"http://x\"\n",
		"[Endpoints]\nBaseURL = \"http://x\"\nWebSocketURL = \"ws://x\"\n[Logging]\nLevel = \"loud\"\n",
		"[Endpoints]\nBaseURL = \"http://x\"\nWebSocketURL = \"ws://x\"\n[Timeouts]\nRPC = -1\n",
		"[Endpoints]\nBaseURL = \"http://x\"\nWebSocketURL = \"ws://x\"\nColor = true\n",
		"[Endpoints\n",
	} {
		_, err := Load([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestParseFileMissing(t *testing.T) {
	cfg, err := ParseFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.Error(t, cfg.FixupAndValidate())
	cfg.Endpoints.BaseURL = "http://localhost:3000"
	cfg.Endpoints.WebSocketURL = "ws://localhost:3000/cryptpad_websocket"
	require.NoError(t, cfg.FixupAndValidate())
	assert.Equal(t, "info", cfg.Logging.Level)
}
