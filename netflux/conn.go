// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netflux

import (
	"context"
	"sync"
	"time"

	"github.com/padcomm/padctl/log"
)

// DirectHandler receives messages addressed to the own peer ID. Handlers are
// called from the read loop and must not block.
type DirectHandler func(from, payload string)

// Conn is a connection to the relay. All its methods are safe for
// concurrent use.
type Conn struct {
	t    Transport
	opts Options

	writeMu sync.Mutex

	mu         sync.Mutex
	seq        int64
	pending    map[int64]chan Frame
	id         string
	identified chan struct{}
	channels   map[string]*Channel
	direct     map[int]DirectHandler
	nextDirect int

	closeOnce sync.Once
	closed    chan struct{}
	err       error
}

// Dial connects to the relay at wsURL. If opts is nil DefaultOptions are
// used.
func Dial(ctx context.Context, wsURL string, opts *Options) (*Conn, error) {
	t, err := DialWebSocket(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	return NewConn(t, opts), nil
}

// NewConn starts the protocol on the given transport.
func NewConn(t Transport, opts *Options) *Conn {
	if opts == nil {
		opts = DefaultOptions()
	}
	c := &Conn{
		t:          t,
		opts:       *opts,
		pending:    make(map[int64]chan Frame),
		identified: make(chan struct{}),
		channels:   make(map[string]*Channel),
		direct:     make(map[int]DirectHandler),
		closed:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Options returns the options of the connection.
func (c *Conn) Options() Options {
	return c.opts
}

// ID waits for the IDENT frame and returns the own peer ID.
func (c *Conn) ID(ctx context.Context) (string, error) {
	select {
	case <-c.identified:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.id, nil
	case <-c.closed:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Conn) myID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Done is closed when the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

// Err returns the error which closed the connection, if any.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Conn) write(elems ...interface{}) error {
	b, err := EncodeFrame(elems...)
	if err != nil {
		return log.Error(err)
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	log.Tracef("netflux: > %s", b)
	if err := c.t.WriteFrame(b); err != nil {
		c.shutdown(err)
		return log.Error(err)
	}
	return nil
}

// request sends a frame with a fresh sequence number and returns the channel
// its reply is delivered to.
func (c *Conn) request(cmd string, args ...interface{}) (int64, chan Frame, error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	reply := make(chan Frame, 1)
	c.pending[seq] = reply
	c.mu.Unlock()
	elems := append([]interface{}{seq, cmd}, args...)
	if err := c.write(elems...); err != nil {
		c.forget(seq)
		return 0, nil, err
	}
	return seq, reply, nil
}

func (c *Conn) forget(seq int64) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

// await waits for the reply to seq. On timeout the request is forgotten.
func (c *Conn) await(ctx context.Context, seq int64, reply chan Frame, timeout time.Duration, timeoutErr error) (Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-reply:
		if f.Is(1, CmdError) || f.Is(2, CmdError) {
			code, _ := f.String(2)
			if f.Is(2, CmdError) {
				code, _ = f.String(3)
			}
			return f, log.Error(&ServerError{Code: code})
		}
		return f, nil
	case <-timer.C:
		c.forget(seq)
		return nil, timeoutErr
	case <-ctx.Done():
		c.forget(seq)
		return nil, log.Error(ctx.Err())
	case <-c.closed:
		return nil, ErrClosed
	}
}

// SendTo sends payload to target, a channel or a peer, and waits for the
// acknowledgment. ErrAckTimeout is returned if it does not arrive in time.
func (c *Conn) SendTo(ctx context.Context, target, payload string) error {
	seq, reply, err := c.request(CmdMsg, target, payload)
	if err != nil {
		return err
	}
	_, err = c.await(ctx, seq, reply, c.opts.AckTimeout, ErrAckTimeout)
	return err
}

// OnDirect registers h for messages addressed to the own peer ID. The
// returned function removes the handler.
func (c *Conn) OnDirect(h DirectHandler) func() {
	c.mu.Lock()
	id := c.nextDirect
	c.nextDirect++
	c.direct[id] = h
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.direct, id)
		c.mu.Unlock()
	}
}

// Join joins the channel chanID and returns it. Joining a channel twice on
// the same connection returns the same Channel; concurrent callers all wait
// for the JACK of the first JOIN.
func (c *Conn) Join(ctx context.Context, chanID string) (*Channel, error) {
	c.mu.Lock()
	if ch, ok := c.channels[chanID]; ok {
		c.mu.Unlock()
		select {
		case <-ch.joined:
		case <-ctx.Done():
			return nil, log.Error(ctx.Err())
		}
		if ch.joinErr != nil {
			return nil, ch.joinErr
		}
		return ch, nil
	}
	ch := newChannel(c, chanID)
	c.channels[chanID] = ch
	c.mu.Unlock()

	err := c.join(ctx, ch)
	if err != nil {
		c.dropChannel(ch)
	}
	ch.joinErr = err
	close(ch.joined)
	if err != nil {
		return nil, err
	}
	log.Debugf("netflux: joined %s", chanID)
	return ch, nil
}

func (c *Conn) join(ctx context.Context, ch *Channel) error {
	if _, err := c.ID(ctx); err != nil {
		return err
	}
	seq, reply, err := c.request(CmdJoin, ch.id)
	if err != nil {
		return err
	}
	f, err := c.await(ctx, seq, reply, c.opts.JoinTimeout, ErrJoinTimeout)
	if err != nil {
		return err
	}
	if !f.Is(1, CmdJack) && !f.Is(2, CmdJack) {
		return log.Errorf("netflux: unexpected reply to JOIN %s", ch.id)
	}
	return nil
}

func (c *Conn) dropChannel(ch *Channel) {
	c.mu.Lock()
	if c.channels[ch.id] == ch {
		delete(c.channels, ch.id)
	}
	c.mu.Unlock()
	ch.markLeft()
}

func (c *Conn) channel(id string) *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[id]
}

// Channels returns the joined channels.
func (c *Conn) Channels() []*Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	chs := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		chs = append(chs, ch)
	}
	return chs
}

func (c *Conn) readLoop() {
	for {
		b, err := c.t.ReadFrame()
		if err != nil {
			c.shutdown(err)
			return
		}
		log.Tracef("netflux: < %s", b)
		f, err := ParseFrame(b)
		if err != nil {
			log.Debugf("netflux: dropping frame: %s", err)
			continue
		}
		c.dispatch(f)
	}
}

func (c *Conn) dispatch(f Frame) {
	if seq := f.Seq(); seq != 0 {
		c.mu.Lock()
		reply, ok := c.pending[seq]
		delete(c.pending, seq)
		c.mu.Unlock()
		if ok {
			reply <- f
			// a MSG that happens to carry our sequence number is still content
			if !f.Is(2, CmdMsg) {
				return
			}
		}
	}
	switch {
	case f.Is(2, CmdIdent):
		id, _ := f.String(3)
		c.mu.Lock()
		if c.id == "" && id != "" {
			c.id = id
			close(c.identified)
		}
		c.mu.Unlock()
	case f.Is(2, CmdJoin):
		peer, _ := f.String(1)
		chanID, _ := f.String(3)
		if ch := c.channel(chanID); ch != nil && peer != c.myID() {
			ch.addPeer(peer)
		}
	case f.Is(2, CmdLeave):
		peer, _ := f.String(1)
		chanID, _ := f.String(3)
		if ch := c.channel(chanID); ch != nil {
			ch.removePeer(peer)
		}
	case f.Is(2, CmdMsg) && len(f) >= 5:
		sender, _ := f.String(1)
		target, _ := f.String(3)
		payload, ok := f.String(4)
		if !ok {
			log.Debug("netflux: dropping MSG without string payload")
			return
		}
		if target != "" && target == c.myID() {
			c.mu.Lock()
			handlers := make([]DirectHandler, 0, len(c.direct))
			for _, h := range c.direct {
				handlers = append(handlers, h)
			}
			c.mu.Unlock()
			for _, h := range handlers {
				h(sender, payload)
			}
			return
		}
		if ch := c.channel(target); ch != nil {
			ch.deliver(Message{Sender: sender, Channel: target, Payload: payload})
		}
	case f.Is(2, CmdMsg) && len(f) == 4:
		// [_, _, "MSG", payload]: only attributable with a single channel
		sender, _ := f.String(1)
		payload, ok := f.String(3)
		chs := c.Channels()
		if ok && len(chs) == 1 {
			chs[0].deliver(Message{Sender: sender, Channel: chs[0].id, Payload: payload})
		}
	default:
		log.Tracef("netflux: ignoring frame")
	}
}

func (c *Conn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.closed)
		c.t.Close()
	})
}

// Close closes the connection without leaving channels.
func (c *Conn) Close() error {
	c.shutdown(nil)
	return nil
}

// Shutdown leaves all channels and closes the connection after the grace
// period.
func (c *Conn) Shutdown() error {
	for _, ch := range c.Channels() {
		ch.sendLeave()
	}
	select {
	case <-time.After(c.opts.LeaveGrace):
	case <-c.closed:
	}
	return c.Close()
}

// nextSeq returns a fresh sequence number for a frame whose reply is not
// awaited.
func (c *Conn) nextSeq() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}
