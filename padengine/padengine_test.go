// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package padengine

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/padcomm/padctl/block"
	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/kdf"
	"github.com/padcomm/padctl/netflux/netfluxtest"
	"github.com/padcomm/padctl/userhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	username = "alice"
	password = "correct-horse"
)

var (
	materialOnce sync.Once
	material     *kdf.Material
)

func testMaterial(t *testing.T) *kdf.Material {
	materialOnce.Do(func() {
		m, err := kdf.Derive(username, password)
		require.NoError(t, err)
		material = m
	})
	return material
}

// run executes padctl with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	pe := New()
	defer pe.Close()
	var out bytes.Buffer
	pe.out = &out
	pe.app.Writer = &bytes.Buffer{}
	pe.readPassword = func() ([]byte, error) {
		return []byte(password), nil
	}
	global := []string{
		"padctl",
		"--config", filepath.Join(t.TempDir(), "missing.toml"),
		"--logdir", "",
		"--username", username,
	}
	err := pe.Run(append(global, args...))
	return out.String(), err
}

func TestArguments(t *testing.T) {
	endpoints := []string{"--base-url", "http://localhost", "--ws-url", "ws://localhost"}
	for _, args := range [][]string{
		{"derive"},
		append(endpoints, "derive", "superfluous"),
		append(endpoints, "send", "bob"),
		append(endpoints, "messages"),
		append(endpoints, "accept", "bob", "carol"),
		append(endpoints, "friend-request", "--curve-public", "key"),
		{"--base-url", "ftp://localhost", "--ws-url", "ws://localhost", "derive"},
	} {
		_, err := run(t, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestDerive(t *testing.T) {
	out, err := run(t, "--base-url", "https://pad.example.org/", "--ws-url",
		"wss://pad.example.org/cryptpad_websocket", "derive")
	require.NoError(t, err)

	m := testMaterial(t)
	keys, err := block.NewKeys(m.BlockSeed())
	require.NoError(t, err)
	edit, err := cryptor.NewEditKeysV1(m.EditSeed())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "block:    "+keys.URL("https://pad.example.org"), lines[0])
	assert.True(t, strings.HasPrefix(lines[0], "block:    https://pad.example.org/block/"))
	assert.Equal(t, "channel:  "+userhash.ChannelHex(m.ChannelSeed()), lines[1])
	assert.Equal(t, "userhash: "+userhash.FormatV1(m.ChannelSeed(), edit.EditKeyStr), lines[2])
}

func TestContacts(t *testing.T) {
	relay := netfluxtest.NewServer()
	defer relay.Close()
	blocks := httptest.NewServer(http.NotFoundHandler())
	defer blocks.Close()

	m := testMaterial(t)
	keys, err := cryptor.NewEditKeysV1(m.EditSeed())
	require.NoError(t, err)
	state, err := json.Marshal(map[string]interface{}{
		"curvePublic":       "cp",
		"edPublic":          "ep",
		"cryptpad.username": "Alice",
		"friends": map[string]interface{}{
			"bobkey": map[string]interface{}{
				"displayName": "Bob",
				"channel":     "0123456789abcdef0123456789abcdef",
			},
		},
	})
	require.NoError(t, err)
	patch, err := keys.Encryptor().Encrypt(string(state))
	require.NoError(t, err)
	relay.AppendHistory(userhash.ChannelHex(m.ChannelSeed()), "someone", patch)

	endpoints := []string{"--base-url", blocks.URL, "--ws-url", relay.URL()}
	out, err := run(t, append(endpoints, "contacts")...)
	require.NoError(t, err)
	assert.Equal(t, "Bob <bobkey>\n", out)

	out, err = run(t, append(endpoints, "login")...)
	require.NoError(t, err)
	assert.Contains(t, out, "display name:  Alice\n")
	assert.Contains(t, out, "curve public:  cp\n")
	assert.Contains(t, out, "legacy:        true\n")
}
