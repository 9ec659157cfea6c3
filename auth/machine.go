// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"
	"sync"

	"github.com/padcomm/padctl/block"
	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/drive"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/padcomm/padctl/kdf"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/netflux"
	"github.com/padcomm/padctl/userhash"
)

// BlockFetcher fetches raw blocks. It is implemented by *block.Client.
type BlockFetcher interface {
	Fetch(ctx context.Context, keys *block.Keys) ([]byte, error)
	Base() string
}

// DriveOpener opens a drive channel.
type DriveOpener func(ctx context.Context, conn *netflux.Conn, chanID string, keys *cryptor.EditKeys) (*drive.Drive, error)

// Deps are the collaborators of a Machine.
type Deps struct {
	// Derive derives the key material, kdf.DeriveContext if nil.
	Derive func(ctx context.Context, username, password string) (*kdf.Material, error)
	// Blocks fetches the block of the user.
	Blocks BlockFetcher
	// Dial opens relay connections.
	Dial netflux.Dialer
	// OpenDrive opens the drive, drive.Open with a SnapshotEngine if nil.
	OpenDrive DriveOpener
}

func openSnapshotDrive(ctx context.Context, conn *netflux.Conn, chanID string, keys *cryptor.EditKeys) (*drive.Drive, error) {
	return drive.Open(ctx, conn, chanID, keys, drive.NewSnapshotEngine())
}

// Identity are the identity keys of a user, base64 encoded.
type Identity struct {
	EdPublic     string
	EdPrivate    string
	CurvePublic  string
	CurvePrivate string
}

// Result is an authenticated session.
type Result struct {
	Username    string
	DisplayName string
	Identity    Identity
	Drive       *drive.Drive
	Network     *netflux.Network
	// UserHash locates the drive.
	UserHash string
	// BlockHash is the block URL with its key, empty for legacy logins.
	BlockHash string
	Legacy    bool
}

// Close leaves the drive and closes the network.
func (r *Result) Close() error {
	r.Drive.Close()
	return r.Network.Close()
}

// Machine is the login state machine. It is safe for concurrent use.
type Machine struct {
	deps Deps

	mu       sync.Mutex
	state    State
	running  bool
	result   *Result
	handlers []TransitionHandler
}

// NewMachine returns a machine in state Start.
func NewMachine(deps Deps) *Machine {
	if deps.Derive == nil {
		deps.Derive = kdf.DeriveContext
	}
	if deps.OpenDrive == nil {
		deps.OpenDrive = openSnapshotDrive
	}
	return &Machine{deps: deps}
}

// TransitionHandler is called for every state transition.
type TransitionHandler func(from, to State)

// OnTransition registers h.
func (m *Machine) OnTransition(h TransitionHandler) {
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Result returns the session of a Ready machine, nil otherwise.
func (m *Machine) Result() *Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

func (m *Machine) to(s State) {
	m.mu.Lock()
	from := m.state
	m.state = s
	handlers := append([]TransitionHandler(nil), m.handlers...)
	m.mu.Unlock()
	log.Debugf("auth: %s -> %s", from, s)
	for _, h := range handlers {
		h(from, s)
	}
}

func (m *Machine) fail(kind Kind, err error) error {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	m.to(Failed)
	return log.Error(&Error{State: state, Kind: kind, Err: err})
}

// Login logs username in. It fails with ErrAlreadyAuthenticated, without
// side effects, if the machine is Ready.
func (m *Machine) Login(ctx context.Context, username, password string) (*Result, error) {
	m.mu.Lock()
	switch {
	case m.state == Ready:
		m.mu.Unlock()
		return nil, log.Error(ErrAlreadyAuthenticated)
	case m.running:
		m.mu.Unlock()
		return nil, log.Error(ErrInProgress)
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()
	if m.State() != Start {
		m.to(Start)
	}

	m.to(DerivingKeys)
	mat, err := m.deps.Derive(ctx, username, password)
	if err != nil {
		return nil, m.fail(KeyDerivation, err)
	}
	defer mat.Wipe()

	res, err := m.blockLogin(ctx, mat)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res, err = m.legacyLogin(ctx, mat)
		if err != nil {
			return nil, err
		}
	}
	res.Username = username
	if res.DisplayName == "" {
		res.DisplayName = username
	}
	m.mu.Lock()
	m.result = res
	m.mu.Unlock()
	m.to(Ready)
	log.Infof("auth: logged in as %s (legacy: %t)", res.DisplayName, res.Legacy)
	return res, nil
}

// blockLogin follows the block path. It returns nil without error if the
// legacy path has to be taken.
func (m *Machine) blockLogin(ctx context.Context, mat *kdf.Material) (*Result, error) {
	m.to(AttemptingBlock)
	keys, err := block.NewKeys(mat.BlockSeed())
	if err != nil {
		return nil, m.fail(KeyDerivation, err)
	}
	if m.deps.Blocks == nil {
		return nil, nil
	}
	blob, err := m.deps.Blocks.Fetch(ctx, keys)
	if err != nil {
		log.Infof("auth: no block (%s), trying legacy login", err)
		return nil, nil
	}
	m.to(DecryptingBlock)
	rec, err := block.Decrypt(blob, keys)
	if err != nil {
		log.Infof("auth: unreadable block (%s), trying legacy login", err)
		return nil, nil
	}
	m.to(ParsingUserHash)
	if rec.UserHash == "" {
		log.Info("auth: block without user hash, trying legacy login")
		return nil, nil
	}
	hash, err := userhash.Parse(rec.UserHash)
	if err != nil {
		return nil, m.fail(UnrecognizedUserHash, err)
	}
	m.to(ConnectingRealDrive)
	res, err := m.connect(ctx, hash.Channel, hash.Keys)
	if err != nil {
		return nil, err
	}
	res.UserHash = hash.Raw
	res.BlockHash = keys.Hash(m.deps.Blocks.Base())
	if res.Identity.EdPublic == "" {
		res.Identity.EdPublic = rec.EdPublic
	}
	if res.Identity.CurvePublic == "" {
		res.Identity.CurvePublic = rec.CurvePublic
	}
	if err := m.check(res); err != nil {
		return nil, err
	}
	return res, nil
}

func (m *Machine) legacyLogin(ctx context.Context, mat *kdf.Material) (*Result, error) {
	m.to(AttemptingLegacy)
	keys, err := cryptor.NewEditKeysV1(mat.EditSeed())
	if err != nil {
		return nil, m.fail(KeyDerivation, err)
	}
	derived, err := legacyIdentity(mat)
	if err != nil {
		return nil, m.fail(KeyDerivation, err)
	}
	channel := mat.ChannelSeed()
	m.to(ConnectingLegacyDrive)
	res, err := m.connect(ctx, userhash.ChannelHex(channel), keys)
	if err != nil {
		return nil, err
	}
	res.Legacy = true
	res.UserHash = userhash.FormatV1(channel, keys.EditKeyStr)
	if err := m.check(res); err != nil {
		return nil, err
	}
	// keys derived from the credentials complete what the drive lacks
	id := &res.Identity
	if id.EdPublic == "" {
		id.EdPublic, id.EdPrivate = derived.EdPublic, derived.EdPrivate
	}
	if id.CurvePublic == "" {
		id.CurvePublic, id.CurvePrivate = derived.CurvePublic, derived.CurvePrivate
	}
	return res, nil
}

func legacyIdentity(mat *kdf.Material) (*Identity, error) {
	curve, err := cipher.Curve25519FromSecret(mat.CurveSeed())
	if err != nil {
		return nil, err
	}
	ed, err := cipher.Ed25519FromSeed(mat.EdSeed())
	if err != nil {
		return nil, err
	}
	return &Identity{
		EdPublic:     base64.Encode(ed.PublicKey()[:]),
		EdPrivate:    base64.Encode(ed.PrivateKey()[:]),
		CurvePublic:  base64.Encode(curve.PublicKey()[:]),
		CurvePrivate: base64.Encode(curve.PrivateKey()[:]),
	}, nil
}

// connect opens the network and the drive on chanID.
func (m *Machine) connect(ctx context.Context, chanID string, keys *cryptor.EditKeys) (*Result, error) {
	network, err := netflux.NewNetwork(ctx, m.deps.Dial)
	if err != nil {
		return nil, m.fail(DriveConnection, err)
	}
	d, err := m.deps.OpenDrive(ctx, network.Conn(), chanID, keys)
	if err != nil {
		network.Conn().Close()
		return nil, m.fail(DriveConnection, err)
	}
	p := d.Profile()
	return &Result{
		DisplayName: p.DisplayName,
		Identity: Identity{
			EdPublic:     p.EdPublic,
			EdPrivate:    p.EdPrivate,
			CurvePublic:  p.CurvePublic,
			CurvePrivate: p.CurvePrivate,
		},
		Drive:   d,
		Network: network,
	}, nil
}

// check fails an opened session whose drive exposes no identity.
func (m *Machine) check(res *Result) error {
	if res.Identity.EdPublic != "" || res.Identity.CurvePublic != "" {
		return nil
	}
	res.Drive.Close()
	res.Network.Conn().Close()
	return m.fail(EmptyOrInvalidDrive, ErrNoIdentity)
}

// Logout closes the session of a Ready machine and returns it to Start.
func (m *Machine) Logout() error {
	m.mu.Lock()
	res := m.result
	m.result = nil
	m.mu.Unlock()
	if res == nil {
		return nil
	}
	err := res.Close()
	m.to(Start)
	return err
}
