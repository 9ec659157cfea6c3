// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/padcomm/padctl/block"
	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/kdf"
	"github.com/padcomm/padctl/netflux"
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

// testMaterial derives the key material of the test user once.
func testMaterial(t *testing.T) *kdf.Material {
	materialOnce.Do(func() {
		m, err := kdf.Derive(username, password)
		require.NoError(t, err)
		material = m
	})
	return material
}

type blockStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	status int
}

func (s *blockStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}
	blob, ok := s.blobs[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(blob)
}

type env struct {
	relay  *netfluxtest.Server
	store  *blockStore
	server *httptest.Server
	deps   Deps
}

func newEnv(t *testing.T) *env {
	e := &env{
		relay: netfluxtest.NewServer(),
		store: &blockStore{blobs: make(map[string][]byte)},
	}
	e.server = httptest.NewServer(e.store)
	t.Cleanup(func() {
		e.server.Close()
		e.relay.Close()
	})
	e.deps = Deps{
		Derive: func(ctx context.Context, user, pass string) (*kdf.Material, error) {
			if user == username && pass == password {
				return kdf.NewMaterial(testMaterial(t).Bytes())
			}
			return kdf.DeriveContext(ctx, user, pass)
		},
		Blocks: block.NewClient(e.server.URL, e.server.Client()),
		Dial: netflux.WebSocketDialer(e.relay.URL(), &netflux.Options{
			AckTimeout:     2 * time.Second,
			JoinTimeout:    2 * time.Second,
			HistoryTimeout: 200 * time.Millisecond,
			LeaveGrace:     time.Millisecond,
		}),
	}
	return e
}

func (e *env) putBlock(t *testing.T, rec *block.Record) *block.Keys {
	keys, err := block.NewKeys(testMaterial(t).BlockSeed())
	require.NoError(t, err)
	blob, err := block.Seal(rec, keys)
	require.NoError(t, err)
	path := strings.TrimPrefix(keys.URL(e.server.URL), e.server.URL)
	e.store.mu.Lock()
	e.store.blobs[path] = blob
	e.store.mu.Unlock()
	return keys
}

func (e *env) putDrive(t *testing.T, chanID string, keys *cryptor.EditKeys, state map[string]interface{}) {
	b, err := json.Marshal(state)
	require.NoError(t, err)
	msg, err := keys.Encryptor().Encrypt(string(b))
	require.NoError(t, err)
	e.relay.AppendHistory(chanID, "someone", msg)
}

func (e *env) putLegacyDrive(t *testing.T, state map[string]interface{}) {
	mat := testMaterial(t)
	keys, err := cryptor.NewEditKeysV1(mat.EditSeed())
	require.NoError(t, err)
	e.putDrive(t, userhash.ChannelHex(mat.ChannelSeed()), keys, state)
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(from, to State) {
	r.mu.Lock()
	r.states = append(r.states, to)
	r.mu.Unlock()
}

func (r *recorder) seen() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func TestLegacyLogin(t *testing.T) {
	e := newEnv(t)
	e.putLegacyDrive(t, map[string]interface{}{
		"curvePublic":       "cp",
		"edPublic":          "ep",
		"cryptpad.username": "Alice",
	})
	m := NewMachine(e.deps)
	var rec recorder
	m.OnTransition(rec.record)

	res, err := m.Login(context.Background(), username, password)
	require.NoError(t, err)
	defer m.Logout()
	assert.Equal(t, Ready, m.State())
	assert.Equal(t, []State{
		DerivingKeys, AttemptingBlock, AttemptingLegacy, ConnectingLegacyDrive, Ready,
	}, rec.seen())
	assert.True(t, res.Legacy)
	assert.True(t, strings.HasPrefix(res.UserHash, "/1/edit/"))
	assert.Empty(t, res.BlockHash)
	assert.Equal(t, "Alice", res.DisplayName)
	assert.Equal(t, "cp", res.Identity.CurvePublic)
	assert.Equal(t, "ep", res.Identity.EdPublic)
	assert.True(t, m.Result() == res)

	// a second login is rejected without side effects
	_, err = m.Login(context.Background(), username, password)
	assert.Equal(t, ErrAlreadyAuthenticated, err)
	assert.Len(t, rec.seen(), 5)
	assert.Equal(t, Ready, m.State())
}

func TestLoginDeterministic(t *testing.T) {
	e := newEnv(t)
	e.putLegacyDrive(t, map[string]interface{}{"edPublic": "ep"})
	m := NewMachine(e.deps)

	first, err := m.Login(context.Background(), username, password)
	require.NoError(t, err)
	require.NoError(t, m.Logout())
	assert.Equal(t, Start, m.State())
	assert.Nil(t, m.Result())
	second, err := m.Login(context.Background(), username, password)
	require.NoError(t, err)
	defer m.Logout()

	assert.Equal(t, first.UserHash, second.UserHash)
	assert.Equal(t, first.Identity, second.Identity)
	assert.Equal(t, first.Drive.ChannelID(), second.Drive.ChannelID())
	// the drive lacks the curve key, the derived one is used
	assert.NotEmpty(t, second.Identity.CurvePublic)
	assert.NotEmpty(t, second.Identity.CurvePrivate)
	assert.Equal(t, username, second.DisplayName)
}

func TestBlockLogin(t *testing.T) {
	e := newEnv(t)
	keys, err := cryptor.GenerateEditKeysV2("")
	require.NoError(t, err)
	e.putDrive(t, keys.ChannelHex(), keys, map[string]interface{}{
		"curvePublic":  "cp",
		"curvePrivate": "cpriv",
	})
	bkeys := e.putBlock(t, &block.Record{
		UserHash: "/2/drive/edit/" + keys.EditKeyStr + "/",
		EdPublic: "blockEd",
	})
	m := NewMachine(e.deps)
	var rec recorder
	m.OnTransition(rec.record)

	res, err := m.Login(context.Background(), username, password)
	require.NoError(t, err)
	defer m.Logout()
	assert.Equal(t, []State{
		DerivingKeys, AttemptingBlock, DecryptingBlock, ParsingUserHash, ConnectingRealDrive, Ready,
	}, rec.seen())
	assert.False(t, res.Legacy)
	assert.Equal(t, bkeys.Hash(e.server.URL), res.BlockHash)
	assert.Equal(t, keys.ChannelHex(), res.Drive.ChannelID())
	assert.Equal(t, "blockEd", res.Identity.EdPublic)
	assert.Equal(t, "cp", res.Identity.CurvePublic)
	assert.Equal(t, "cpriv", res.Identity.CurvePrivate)
}

func TestBlockKeysFillEmptyDrive(t *testing.T) {
	e := newEnv(t)
	keys, err := cryptor.GenerateEditKeysV2("")
	require.NoError(t, err)
	e.putDrive(t, keys.ChannelHex(), keys, map[string]interface{}{})
	e.putBlock(t, &block.Record{
		UserHash:    "/2/drive/edit/" + keys.EditKeyStr + "/",
		EdPublic:    "blockEd",
		CurvePublic: "blockCurve",
	})
	m := NewMachine(e.deps)
	res, err := m.Login(context.Background(), username, password)
	require.NoError(t, err)
	defer m.Logout()
	assert.Equal(t, Ready, m.State())
	assert.Equal(t, "blockEd", res.Identity.EdPublic)
	assert.Equal(t, "blockCurve", res.Identity.CurvePublic)
}

func TestUnrecognizedUserHash(t *testing.T) {
	e := newEnv(t)
	e.putBlock(t, &block.Record{UserHash: "garbage"})
	m := NewMachine(e.deps)
	_, err := m.Login(context.Background(), username, password)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, UnrecognizedUserHash, aerr.Kind)
	assert.Equal(t, ParsingUserHash, aerr.State)
	assert.True(t, errors.Is(err, userhash.ErrUnrecognized))
	assert.False(t, aerr.Temporary())
	assert.Equal(t, Failed, m.State())
}

func TestBlockFallbacks(t *testing.T) {
	for name, setup := range map[string]func(e *env){
		"missing": func(e *env) {},
		"status":  func(e *env) { e.store.status = http.StatusInternalServerError },
		"garbage": func(e *env) {
			keys, _ := block.NewKeys(testMaterial(t).BlockSeed())
			e.store.blobs[strings.TrimPrefix(keys.URL(e.server.URL), e.server.URL)] = []byte("garbage garbage garbage garbage garbage garbage")
		},
		"no user hash": func(e *env) { e.putBlock(t, &block.Record{EdPublic: "x"}) },
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			e.putLegacyDrive(t, map[string]interface{}{"edPublic": "ep"})
			setup(e)
			m := NewMachine(e.deps)
			var rec recorder
			m.OnTransition(rec.record)
			res, err := m.Login(context.Background(), username, password)
			require.NoError(t, err)
			defer m.Logout()
			assert.True(t, res.Legacy)
			assert.Contains(t, rec.seen(), AttemptingLegacy)
			assert.NotContains(t, rec.seen(), Failed)
		})
	}
}

func TestEmptyDrive(t *testing.T) {
	e := newEnv(t)
	m := NewMachine(e.deps)
	_, err := m.Login(context.Background(), username, password)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, EmptyOrInvalidDrive, aerr.Kind)
	assert.Equal(t, ConnectingLegacyDrive, aerr.State)
	assert.Equal(t, Failed, m.State())

	// a failed machine can try again
	e.putLegacyDrive(t, map[string]interface{}{"edPublic": "ep"})
	_, err = m.Login(context.Background(), username, password)
	require.NoError(t, err)
	m.Logout()
}

func TestKeyDerivationFailure(t *testing.T) {
	e := newEnv(t)
	m := NewMachine(e.deps)
	_, err := m.Login(context.Background(), username, "")
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, KeyDerivation, aerr.Kind)
	assert.Equal(t, DerivingKeys, aerr.State)
	assert.True(t, errors.Is(err, kdf.ErrInvalidCredentials))
}

func TestDriveConnectionFailure(t *testing.T) {
	e := newEnv(t)
	e.deps.Dial = func(context.Context) (*netflux.Conn, error) {
		return nil, netflux.ErrClosed
	}
	m := NewMachine(e.deps)
	_, err := m.Login(context.Background(), username, password)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, DriveConnection, aerr.Kind)
	assert.True(t, aerr.Temporary())
	assert.Equal(t, "DriveConnectionError", aerr.Kind.String())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "AttemptingLegacy", AttemptingLegacy.String())
	assert.Equal(t, "Unknown", State(42).String())
}
