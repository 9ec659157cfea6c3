// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netflux

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/padcomm/padctl/def"
	"github.com/padcomm/padctl/log"
)

// Dialer opens a new connection.
type Dialer func(ctx context.Context) (*Conn, error)

// WebSocketDialer returns a Dialer for the relay at wsURL.
func WebSocketDialer(wsURL string, opts *Options) Dialer {
	return func(ctx context.Context) (*Conn, error) {
		return Dial(ctx, wsURL, opts)
	}
}

// Network is a reconnect-capable handle on a relay connection.
type Network struct {
	dial Dialer

	mu     sync.Mutex
	conn   *Conn
	closed bool
}

// NewNetwork dials the first connection.
func NewNetwork(ctx context.Context, dial Dialer) (*Network, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	return &Network{dial: dial, conn: conn}, nil
}

// Conn returns the current connection.
func (n *Network) Conn() *Conn {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.conn
}

// Dial opens an additional connection with the dialer of the network. The
// caller owns it.
func (n *Network) Dial(ctx context.Context) (*Conn, error) {
	return n.dial(ctx)
}

// Reconnect replaces the current connection with a new one. Dialing is
// retried with exponential backoff until the accumulated delay exceeds
// def.ReconnectMax. Channels must be joined again on the new connection.
func (n *Network) Reconnect(ctx context.Context) (*Conn, error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil, ErrClosed
	}
	old := n.conn
	n.mu.Unlock()
	if old != nil {
		old.Close()
	}
	b := &backoff.Backoff{
		Min:    def.ReconnectMin,
		Max:    def.ReconnectMax,
		Factor: 1.5,
		Jitter: false,
	}
	var (
		total    time.Duration
		attempts int
	)
	for {
		attempts++
		conn, err := n.dial(ctx)
		if err == nil {
			n.mu.Lock()
			if n.closed {
				n.mu.Unlock()
				conn.Close()
				return nil, ErrClosed
			}
			n.conn = conn
			n.mu.Unlock()
			log.Infof("netflux: reconnected after %d attempt(s)", attempts)
			return conn, nil
		}
		if total >= def.ReconnectMax {
			return nil, log.Errorf("netflux: reconnect failed: %s", err)
		}
		d := b.Duration()
		log.Warnf("netflux: reconnect failed, retry in %s: %s", d, err)
		if err := sleep(ctx, d); err != nil {
			return nil, log.Error(err)
		}
		total += d
	}
}

// Close shuts the current connection down, leaving all its channels.
func (n *Network) Close() error {
	n.mu.Lock()
	n.closed = true
	conn := n.conn
	n.mu.Unlock()
	if conn != nil {
		return conn.Shutdown()
	}
	return nil
}
