// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/padcomm/padctl/auth"
	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/padcomm/padctl/kdf"
	"github.com/padcomm/padctl/mailbox"
	"github.com/padcomm/padctl/messenger"
	"github.com/padcomm/padctl/netflux"
	"github.com/padcomm/padctl/netflux/netfluxtest"
	"github.com/padcomm/padctl/userhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conversation = "0123456789abcdef0123456789abcdef"

type keyPair struct {
	pub, priv string
}

func newKeyPair(t *testing.T) keyPair {
	k, err := cipher.Curve25519Generate(cipher.RandReader)
	require.NoError(t, err)
	return keyPair{base64.Encode(k.PublicKey()[:]), base64.Encode(k.PrivateKey()[:])}
}

func options() *netflux.Options {
	return &netflux.Options{
		AckTimeout:     2 * time.Second,
		JoinTimeout:    2 * time.Second,
		HistoryTimeout: 200 * time.Millisecond,
		LeaveGrace:     time.Millisecond,
	}
}

func TestManager(t *testing.T) {
	relay := netfluxtest.NewServer()
	defer relay.Close()
	blocks := httptest.NewServer(http.NotFoundHandler())
	defer blocks.Close()
	ctx := context.Background()

	mat, err := kdf.Derive("alice", "pw")
	require.NoError(t, err)
	alice, bob, dave := newKeyPair(t), newKeyPair(t), newKeyPair(t)

	// legacy drive of alice
	keys, err := cryptor.NewEditKeysV1(mat.EditSeed())
	require.NoError(t, err)
	state, err := json.Marshal(map[string]interface{}{
		"curvePublic":       alice.pub,
		"curvePrivate":      alice.priv,
		"edPublic":          "aliceEd",
		"cryptpad.username": "Alice",
		"mailboxes":         map[string]interface{}{"notifications": map[string]interface{}{"channel": "a1"}},
		"friends": map[string]interface{}{
			bob.pub: map[string]interface{}{
				"displayName":   "Bob",
				"channel":       conversation,
				"notifications": "b1",
			},
		},
	})
	require.NoError(t, err)
	patch, err := keys.Encryptor().Encrypt(string(state))
	require.NoError(t, err)
	relay.AppendHistory(userhash.ChannelHex(mat.ChannelSeed()), "x", patch)

	m, err := New(Config{
		BaseURL:      blocks.URL,
		WebSocketURL: relay.URL(),
		Options:      options(),
		HTTPClient:   blocks.Client(),
		Derive: func(context.Context, string, string) (*kdf.Material, error) {
			return kdf.NewMaterial(mat.Bytes())
		},
	})
	require.NoError(t, err)

	_, err = m.Contacts()
	assert.Equal(t, ErrNotAuthenticated, err)
	var authenticated *auth.Result
	m.OnAuthenticated(func(res *auth.Result) { authenticated = res })

	res, err := m.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.True(t, authenticated == res)
	assert.Equal(t, auth.Ready, m.State())
	assert.Equal(t, "Alice", res.DisplayName)
	id, err := m.Identity()
	require.NoError(t, err)
	assert.Equal(t, alice.pub, id.Identity.CurvePublic)

	list, err := m.Contacts()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0].DisplayName)

	// direct message to bob
	rb := messenger.NewRegistry(netflux.WebSocketDialer(relay.URL(), options()),
		messenger.Identity{CurvePublic: bob.pub, CurvePrivate: bob.priv})
	defer rb.Close()
	sb, err := rb.Open(ctx, messenger.Contact{CurvePublic: alice.pub, Channel: conversation})
	require.NoError(t, err)
	out, err := m.SendMessage(ctx, "bob", "hi")
	require.NoError(t, err)
	st, err := out.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, messenger.Acknowledged, st)
	msgs, err := m.GetMessages(ctx, bob.pub)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
	require.Eventually(t, func() bool { return len(sb.Messages()) == 1 }, time.Second, 5*time.Millisecond)
	_, err = m.SendMessage(ctx, "eve", "hi")
	assert.Equal(t, ErrUnknownContact, err)

	// friend request from dave
	daveBox, err := cryptor.NewMailbox(dave.pub, dave.priv)
	require.NoError(t, err)
	env, err := json.Marshal(map[string]interface{}{
		"type": mailbox.FriendRequest,
		"content": mailbox.UserData{
			DisplayName:   "Dave",
			CurvePublic:   dave.pub,
			Notifications: "d1",
		},
	})
	require.NoError(t, err)
	sealed, err := daveBox.Seal(string(env), alice.pub)
	require.NoError(t, err)
	relay.AppendHistory("a1", "x", sealed)

	reqs, err := m.PendingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Dave", reqs[0].DisplayName)
	c, err := m.AcceptFriendRequest(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, dave.pub, c.CurvePublic)
	assert.Len(t, relay.History("d1"), 1)
	list, err = m.Contacts()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// request to carol after a reconnect
	require.NoError(t, m.Reconnect(ctx))
	carol := newKeyPair(t)
	require.NoError(t, m.SendFriendRequest(ctx, mailbox.Recipient{CurvePublic: carol.pub, Notifications: "c1"}))
	assert.Len(t, relay.History("c1"), 1)
	added, err := m.SyncFriends(ctx)
	require.NoError(t, err)
	assert.Empty(t, added)

	require.NoError(t, m.Logout())
	assert.Equal(t, auth.Start, m.State())
	_, err = m.GetMessages(ctx, "bob")
	assert.Equal(t, ErrNotAuthenticated, err)
	assert.Equal(t, ErrNotAuthenticated, m.DeclineFriendRequest(ctx, "dave"))
}

func TestNewRequiresEndpoints(t *testing.T) {
	_, err := New(Config{BaseURL: "https://example.org"})
	assert.Equal(t, ErrNoEndpoint, err)
}
