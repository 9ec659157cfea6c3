// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rpc implements remote procedure calls to a relay peer over the
// direct messages of a netflux connection.
//
// A call is a frame [txid, command, args...] (or [txid, [command, args...]])
// sent to the relay peer. The relay answers with [txid, error, result], error
// being null on success. Calls are correlated by txid, so any number of them
// can be outstanding and answered in any order.
package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/def"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/netflux"
)

var (
	// ErrTimeout is returned if the relay did not answer a call in time.
	ErrTimeout = errors.New("rpc: call timed out")
	// ErrClosed is returned for calls on a closed client or connection.
	ErrClosed = errors.New("rpc: client closed")
	// ErrNoRelay is returned by FindRelay if no relay peer is known.
	ErrNoRelay = errors.New("rpc: no relay peer known")
)

// Error is a non-null error returned by the relay.
type Error struct {
	Command string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc: %s failed: %s", e.Command, e.Message)
}

// Temporary reports whether err is worth retrying.
func Temporary(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// Framing selects the shape of request frames.
type Framing int

const (
	// Flat frames are [txid, command, args...].
	Flat Framing = iota
	// Nested frames are [txid, [command, args...]].
	Nested
)

type response struct {
	errMsg *string
	result json.RawMessage
}

// Client is an RPC client. It is safe for concurrent use.
type Client struct {
	conn    *netflux.Conn
	peer    string
	framing Framing
	timeout time.Duration

	mu          sync.Mutex
	pending     map[string]chan response
	closed      bool
	unsubscribe func()
}

// NewClient returns a client sending calls to peer over conn.
func NewClient(conn *netflux.Conn, peer string, framing Framing) *Client {
	c := &Client{
		conn:    conn,
		peer:    peer,
		framing: framing,
		timeout: def.RPCTimeout,
		pending: make(map[string]chan response),
	}
	c.unsubscribe = conn.OnDirect(c.receive)
	return c
}

// FindRelay returns the relay peer of conn: the configured history keeper or
// the history keeper of the first joined channel.
func FindRelay(ctx context.Context, conn *netflux.Conn) (string, error) {
	if hk := conn.Options().HistoryKeeper; hk != "" {
		return hk, nil
	}
	chs := conn.Channels()
	if len(chs) == 0 {
		return "", log.Error(ErrNoRelay)
	}
	return chs[0].HistoryKeeper(ctx)
}

// SetTimeout sets the time to wait for a response.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// Peer returns the relay peer.
func (c *Client) Peer() string {
	return c.peer
}

func (c *Client) receive(from, payload string) {
	if from != c.peer {
		return
	}
	f, err := netflux.ParseFrame([]byte(payload))
	if err != nil || len(f) < 2 {
		return
	}
	txid, ok := f.String(0)
	if !ok {
		return
	}
	c.mu.Lock()
	reply, ok := c.pending[txid]
	delete(c.pending, txid)
	c.mu.Unlock()
	if !ok {
		log.Tracef("rpc: ignoring response %s", txid)
		return
	}
	var resp response
	if msg, ok := f.String(1); ok {
		resp.errMsg = &msg
	} else if string(f[1]) != "null" {
		msg := string(f[1])
		resp.errMsg = &msg
	}
	resp.result = f.Raw(2)
	reply <- resp
}

func newTxid() (string, error) {
	b, err := cipher.RandBytes(cipher.RandReader, 16)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (c *Client) encode(txid, cmd string, args []interface{}) ([]byte, error) {
	if c.framing == Nested {
		return json.Marshal([]interface{}{txid, append([]interface{}{cmd}, args...)})
	}
	return json.Marshal(append([]interface{}{txid, cmd}, args...))
}

func (c *Client) forget(txid string) {
	c.mu.Lock()
	delete(c.pending, txid)
	c.mu.Unlock()
}

// Call calls cmd with args and returns the result. A non-null error of the
// relay is returned as *Error.
func (c *Client) Call(ctx context.Context, cmd string, args ...interface{}) (json.RawMessage, error) {
	txid, err := newTxid()
	if err != nil {
		return nil, err
	}
	msg, err := c.encode(txid, cmd, args)
	if err != nil {
		return nil, log.Error(err)
	}
	reply := make(chan response, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[txid] = reply
	timeout := c.timeout
	c.mu.Unlock()

	log.Debugf("rpc: call %s (%s)", cmd, txid)
	switch err := c.conn.SendTo(ctx, c.peer, string(msg)); err {
	case nil:
	case netflux.ErrAckTimeout:
		log.Warnf("rpc: %s not acknowledged by relay, waiting for response", cmd)
	default:
		c.forget(txid)
		if err == netflux.ErrClosed {
			return nil, ErrClosed
		}
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-reply:
		if resp.errMsg != nil {
			return nil, log.Error(&Error{Command: cmd, Message: *resp.errMsg})
		}
		return resp.result, nil
	case <-timer.C:
		c.forget(txid)
		log.Warnf("rpc: %s (%s) timed out", cmd, txid)
		return nil, ErrTimeout
	case <-ctx.Done():
		c.forget(txid)
		return nil, log.Error(ctx.Err())
	case <-c.conn.Done():
		c.forget(txid)
		return nil, ErrClosed
	}
}

// Close stops the client. Outstanding calls end with their timeout or
// context.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.unsubscribe()
}
