// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session ties login, contacts, direct messages and friend requests
// together into the session of one user.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/padcomm/padctl/auth"
	"github.com/padcomm/padctl/block"
	"github.com/padcomm/padctl/contacts"
	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/kdf"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/mailbox"
	"github.com/padcomm/padctl/messenger"
	"github.com/padcomm/padctl/netflux"
	"github.com/padcomm/padctl/rpc"
)

var (
	// ErrNotAuthenticated is returned for operations which need a login.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrUnknownContact is returned if a contact can not be found.
	ErrUnknownContact = errors.New("session: unknown contact")
	// ErrNoEndpoint is returned by New if an endpoint is missing.
	ErrNoEndpoint = errors.New("session: HTTP and WebSocket endpoints are required")
)

// Config configures a Manager.
type Config struct {
	// BaseURL is the HTTP origin of the service.
	BaseURL string
	// WebSocketURL is the URL of the relay.
	WebSocketURL string
	// Options of relay connections, netflux.DefaultOptions if nil.
	Options *netflux.Options
	// HTTPClient fetches blocks.
	HTTPClient *http.Client
	// Framing of RPC calls to the relay.
	Framing rpc.Framing
	// Derive overrides the key derivation.
	Derive func(ctx context.Context, username, password string) (*kdf.Material, error)
}

// Manager is the session of one user. It is safe for concurrent use.
type Manager struct {
	dial    netflux.Dialer
	framing rpc.Framing
	machine *auth.Machine

	mu        sync.Mutex
	res       *auth.Result
	book      *contacts.Book
	registry  *messenger.Registry
	rpc       *rpc.Client
	friends   *mailbox.Friends
	callbacks []AuthCallback
}

// New returns a Manager for the service at the configured endpoints.
func New(cfg Config) (*Manager, error) {
	if cfg.BaseURL == "" || cfg.WebSocketURL == "" {
		return nil, log.Error(ErrNoEndpoint)
	}
	dial := netflux.WebSocketDialer(cfg.WebSocketURL, cfg.Options)
	return &Manager{
		dial:    dial,
		framing: cfg.Framing,
		machine: auth.NewMachine(auth.Deps{
			Derive: cfg.Derive,
			Blocks: block.NewClient(cfg.BaseURL, cfg.HTTPClient),
			Dial:   dial,
		}),
	}, nil
}

// AuthCallback is called after every successful login.
type AuthCallback func(*auth.Result)

// OnAuthenticated registers f.
func (m *Manager) OnAuthenticated(f AuthCallback) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, f)
	m.mu.Unlock()
}

// OnTransition registers h for the state transitions of the login.
func (m *Manager) OnTransition(h auth.TransitionHandler) {
	m.machine.OnTransition(h)
}

// State returns the login state.
func (m *Manager) State() auth.State {
	return m.machine.State()
}

// Login logs in and sets the session up.
func (m *Manager) Login(ctx context.Context, username, password string) (*auth.Result, error) {
	res, err := m.machine.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	profile := res.Drive.Profile()
	book := contacts.NewBook(profile.Friends)
	registry := messenger.NewRegistry(m.dial, messenger.Identity{
		CurvePublic:  res.Identity.CurvePublic,
		CurvePrivate: res.Identity.CurvePrivate,
		EdPublic:     res.Identity.EdPublic,
	})
	client, friends := m.setupMailbox(ctx, res, profile.Notifications, book)

	m.mu.Lock()
	m.res = res
	m.book = book
	m.registry = registry
	m.rpc = client
	m.friends = friends
	callbacks := append([]AuthCallback(nil), m.callbacks...)
	m.mu.Unlock()
	for _, f := range callbacks {
		f(res)
	}
	return res, nil
}

// setupMailbox returns the RPC client and friend request flows of res. Both
// are nil if the identity or the relay do not allow them.
func (m *Manager) setupMailbox(ctx context.Context, res *auth.Result, notifications string, book *contacts.Book) (*rpc.Client, *mailbox.Friends) {
	box, err := cryptor.NewMailbox(res.Identity.CurvePublic, res.Identity.CurvePrivate)
	if err != nil {
		log.Warnf("session: no mailbox: %s", err)
		return nil, nil
	}
	conn := res.Network.Conn()
	peer, err := rpc.FindRelay(ctx, conn)
	if err != nil {
		log.Warnf("session: no relay for RPC: %s", err)
		return nil, nil
	}
	client := rpc.NewClient(conn, peer, m.framing)
	friends := mailbox.NewFriends(mailbox.UserData{
		DisplayName:   res.DisplayName,
		CurvePublic:   res.Identity.CurvePublic,
		EdPublic:      res.Identity.EdPublic,
		Notifications: notifications,
	}, book, mailbox.NewPendingStore(), mailbox.NewSender(client, box), mailbox.NewReader(m.dial, box))
	return client, friends
}

// Logout closes all channels of the session.
func (m *Manager) Logout() error {
	m.mu.Lock()
	registry, client := m.registry, m.rpc
	m.res, m.book, m.registry, m.rpc, m.friends = nil, nil, nil, nil, nil
	m.mu.Unlock()
	if registry != nil {
		if err := registry.Close(); err != nil {
			log.Warnf("session: closing conversations: %s", err)
		}
	}
	if client != nil {
		client.Close()
	}
	return m.machine.Logout()
}

// Reconnect replaces the relay connection of the session and joins the
// drive again.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.mu.Lock()
	res, old, book := m.res, m.rpc, m.book
	m.mu.Unlock()
	if res == nil {
		return log.Error(ErrNotAuthenticated)
	}
	conn, err := res.Network.Reconnect(ctx)
	if err != nil {
		return err
	}
	if err := res.Drive.Reconnect(ctx, conn); err != nil {
		return err
	}
	if old != nil {
		old.Close()
	}
	client, friends := m.setupMailbox(ctx, res, res.Drive.Profile().Notifications, book)
	m.mu.Lock()
	m.rpc, m.friends = client, friends
	m.mu.Unlock()
	return nil
}

func (m *Manager) session() (*auth.Result, *contacts.Book, *messenger.Registry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.res == nil {
		return nil, nil, nil, log.Error(ErrNotAuthenticated)
	}
	return m.res, m.book, m.registry, nil
}

func (m *Manager) friendFlows() (*mailbox.Friends, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.res == nil {
		return nil, log.Error(ErrNotAuthenticated)
	}
	if m.friends == nil {
		return nil, log.Error(mailbox.ErrNoMailbox)
	}
	return m.friends, nil
}

// Identity returns the identity of the logged in user.
func (m *Manager) Identity() (*auth.Result, error) {
	res, _, _, err := m.session()
	return res, err
}

// Contacts returns the contacts sorted by display name.
func (m *Manager) Contacts() ([]contacts.Contact, error) {
	_, book, _, err := m.session()
	if err != nil {
		return nil, err
	}
	return book.GetContacts(), nil
}

func (m *Manager) conversation(ctx context.Context, contactID string) (*messenger.Session, error) {
	_, book, registry, err := m.session()
	if err != nil {
		return nil, err
	}
	c, err := book.Find(contactID)
	if err == contacts.ErrNotFound {
		return nil, log.Error(ErrUnknownContact)
	} else if err != nil {
		return nil, err
	}
	return registry.Open(ctx, messenger.Contact{
		CurvePublic: c.CurvePublic,
		Channel:     c.Channel,
		DisplayName: c.DisplayName,
		EdPublic:    c.EdPublic,
	})
}

// SendMessage sends text to the contact whose curve key or display name is
// contactID.
func (m *Manager) SendMessage(ctx context.Context, contactID, text string) (*messenger.Outgoing, error) {
	s, err := m.conversation(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, text)
}

// GetMessages returns the conversation with the contact whose curve key or
// display name is contactID.
func (m *Manager) GetMessages(ctx context.Context, contactID string) ([]messenger.Message, error) {
	s, err := m.conversation(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return s.Messages(), nil
}

// PendingRequests returns the friend requests in the own mailbox.
func (m *Manager) PendingRequests(ctx context.Context) ([]mailbox.Request, error) {
	f, err := m.friendFlows()
	if err != nil {
		return nil, err
	}
	return f.Requests(ctx)
}

// SendFriendRequest sends a friend request to r.
func (m *Manager) SendFriendRequest(ctx context.Context, r mailbox.Recipient) error {
	f, err := m.friendFlows()
	if err != nil {
		return err
	}
	return f.SendRequest(ctx, r)
}

// AcceptFriendRequest accepts the friend request from the user whose curve
// key or display name is id.
func (m *Manager) AcceptFriendRequest(ctx context.Context, id string) (contacts.Contact, error) {
	f, err := m.friendFlows()
	if err != nil {
		return contacts.Contact{}, err
	}
	return f.Accept(ctx, id)
}

// DeclineFriendRequest declines the friend request from the user whose curve
// key or display name is id.
func (m *Manager) DeclineFriendRequest(ctx context.Context, id string) error {
	f, err := m.friendFlows()
	if err != nil {
		return err
	}
	return f.Decline(ctx, id)
}

// SyncFriends processes the answers to sent friend requests and returns the
// new contacts.
func (m *Manager) SyncFriends(ctx context.Context) ([]contacts.Contact, error) {
	f, err := m.friendFlows()
	if err != nil {
		return nil, err
	}
	return f.Sync(ctx)
}
