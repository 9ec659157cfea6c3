// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package messenger

import (
	"context"
	"errors"
	"sync"

	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/netflux"
	"github.com/padcomm/padctl/util/times"
)

var (
	// ErrClosed is returned for operations on a closed session.
	ErrClosed = errors.New("messenger: session closed")
	// ErrInvalidContact is returned for contacts without channel or key.
	ErrInvalidContact = errors.New("messenger: contact without channel or curve key")
)

// Identity is the own identity as far as direct messages are concerned.
type Identity struct {
	CurvePublic  string
	CurvePrivate string
	EdPublic     string
}

// Contact is the other side of a conversation.
type Contact struct {
	CurvePublic string
	// Channel is the hex encoded channel of the conversation.
	Channel     string
	DisplayName string
	EdPublic    string
}

// Session is an open conversation. It is safe for concurrent use.
type Session struct {
	me      Identity
	contact Contact
	conn    *netflux.Conn
	ch      *netflux.Channel
	enc     cryptor.Encryptor
	log     *Log

	mu          sync.Mutex
	complete    bool
	closed      bool
	unsubscribe func()
}

// openSession joins the conversation with c on conn, which the session
// takes ownership of, and replays its history.
func openSession(ctx context.Context, conn *netflux.Conn, me Identity, c Contact) (*Session, error) {
	keys, err := cryptor.DeriveCurveKeys(c.CurvePublic, me.CurvePrivate)
	if err != nil {
		return nil, err
	}
	s := &Session{
		me:      me,
		contact: c,
		conn:    conn,
		enc:     keys.Encryptor(),
		log:     NewLog(),
	}
	ch, err := conn.Join(ctx, c.Channel)
	if err != nil {
		return nil, err
	}
	s.ch = ch
	s.unsubscribe = ch.OnMessage(func(m netflux.Message) { s.receive(m.Payload) })
	complete, err := ch.History(ctx, netflux.HistoryRequest{
		ValidateKey: base64.Encode(keys.SignKey.PublicKey()[:]),
		Owners:      []string{me.EdPublic, c.EdPublic},
	}, func(m netflux.Message) {
		s.receive(m.Payload)
	})
	if err != nil {
		s.unsubscribe()
		return nil, err
	}
	s.complete = complete
	log.Debugf("messenger: opened %s with %d message(s)", c.Channel, s.log.Len())
	return s, nil
}

func (s *Session) receive(payload string) {
	plain, err := s.enc.Decrypt(payload)
	if err != nil {
		log.Tracef("messenger: dropping undecryptable message on %s", s.contact.Channel)
		return
	}
	m, err := decodeMessage(plain)
	if err != nil {
		log.Debugf("messenger: dropping message on %s: %s", s.contact.Channel, err)
		return
	}
	if m.Type != TypeMsg {
		log.Tracef("messenger: ignoring %s on %s", m.Type, s.contact.Channel)
		return
	}
	m.Sig = sig(payload)
	s.log.Add(*m)
}

// Contact returns the other side of the conversation.
func (s *Session) Contact() Contact {
	return s.contact
}

// Complete reports whether the history replay was complete.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

// Messages returns the messages of the conversation in timestamp order.
func (s *Session) Messages() []Message {
	return s.log.Messages()
}

// Send sends text. The message is added to the log right away. The returned
// Outgoing leaves the Pending state when the relay acknowledged it or the
// acknowledgment timed out.
func (s *Session) Send(ctx context.Context, text string) (*Outgoing, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	m := Message{
		Type:    TypeMsg,
		Author:  s.me.CurvePublic,
		Time:    times.NowMillis(),
		Content: text,
	}
	plain, err := m.encode()
	if err != nil {
		return nil, log.Error(err)
	}
	msg, err := s.enc.Encrypt(plain)
	if err != nil {
		return nil, err
	}
	m.Sig = sig(msg)
	s.log.Add(m)
	out := newOutgoing(m)
	go func() {
		switch err := s.ch.Broadcast(context.WithoutCancel(ctx), msg); err {
		case nil:
			out.resolve(Acknowledged, nil)
		case netflux.ErrAckTimeout:
			log.Warnf("messenger: message to %s possibly delivered", s.contact.Channel)
			out.resolve(TimedOut, err)
		default:
			log.Errorf("messenger: sending to %s failed: %s", s.contact.Channel, err)
			out.resolve(Failed, err)
		}
	}()
	return out, nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case <-s.conn.Done():
		return true
	default:
		return false
	}
}

// Close leaves the channel and closes the connection of the session.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.unsubscribe()
	return s.conn.Shutdown()
}
