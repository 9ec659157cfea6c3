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

// Message is a message received on a channel.
type Message struct {
	Sender  string
	Channel string
	Payload string
	// History is set for messages replayed by the history keeper.
	History bool
}

// MessageHandler receives live channel messages. Handlers are called from
// the read loop in arrival order and must not block.
type MessageHandler func(Message)

// Channel is a joined channel.
type Channel struct {
	conn *Conn
	id   string

	mu        sync.Mutex
	peers     []string
	peerAdded chan struct{}
	handlers  map[int]MessageHandler
	next      int
	left      bool

	// joined is closed once the JOIN was answered; joinErr is set before.
	joined  chan struct{}
	joinErr error
}

func newChannel(c *Conn, id string) *Channel {
	return &Channel{
		conn:      c,
		id:        id,
		peerAdded: make(chan struct{}),
		joined:    make(chan struct{}),
		handlers:  make(map[int]MessageHandler),
	}
}

// ID returns the channel ID.
func (ch *Channel) ID() string {
	return ch.id
}

// Conn returns the connection the channel was joined on.
func (ch *Channel) Conn() *Conn {
	return ch.conn
}

// Peers returns the peers on the channel in the order they were first
// observed, excluding the own peer.
func (ch *Channel) Peers() []string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return append([]string(nil), ch.peers...)
}

func (ch *Channel) addPeer(peer string) {
	if peer == "" {
		return
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for _, p := range ch.peers {
		if p == peer {
			return
		}
	}
	ch.peers = append(ch.peers, peer)
	close(ch.peerAdded)
	ch.peerAdded = make(chan struct{})
}

func (ch *Channel) removePeer(peer string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for i, p := range ch.peers {
		if p == peer {
			ch.peers = append(ch.peers[:i], ch.peers[i+1:]...)
			return
		}
	}
}

// waitPeers waits until more than n peers are known.
func (ch *Channel) waitPeers(ctx context.Context, n int) ([]string, error) {
	timer := time.NewTimer(ch.conn.opts.JoinTimeout)
	defer timer.Stop()
	for {
		ch.mu.Lock()
		if len(ch.peers) > n {
			peers := append([]string(nil), ch.peers...)
			ch.mu.Unlock()
			return peers, nil
		}
		added := ch.peerAdded
		ch.mu.Unlock()
		select {
		case <-added:
		case <-timer.C:
			return nil, ErrNoHistoryKeeper
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch.conn.closed:
			return nil, ErrClosed
		}
	}
}

// HistoryKeeper returns the history keeper of the channel: the configured
// override or the first peer observed on the channel. It waits for the
// first peer if necessary.
func (ch *Channel) HistoryKeeper(ctx context.Context) (string, error) {
	if hk := ch.conn.opts.HistoryKeeper; hk != "" {
		return hk, nil
	}
	peers, err := ch.waitPeers(ctx, 0)
	if err != nil {
		return "", log.Error(err)
	}
	return peers[0], nil
}

// OnMessage registers h for live messages. The returned function removes
// the handler.
func (ch *Channel) OnMessage(h MessageHandler) func() {
	ch.mu.Lock()
	id := ch.next
	ch.next++
	ch.handlers[id] = h
	ch.mu.Unlock()
	return func() {
		ch.mu.Lock()
		delete(ch.handlers, id)
		ch.mu.Unlock()
	}
}

func (ch *Channel) deliver(m Message) {
	ch.mu.Lock()
	if ch.left {
		ch.mu.Unlock()
		return
	}
	handlers := make([]MessageHandler, 0, len(ch.handlers))
	for i := 0; i < ch.next; i++ {
		if h, ok := ch.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	ch.mu.Unlock()
	for _, h := range handlers {
		h(m)
	}
}

// Broadcast sends payload to all members of the channel and waits for the
// acknowledgment. ErrAckTimeout means the message was possibly delivered.
func (ch *Channel) Broadcast(ctx context.Context, payload string) error {
	ch.mu.Lock()
	left := ch.left
	ch.mu.Unlock()
	if left {
		return ErrLeft
	}
	return ch.conn.SendTo(ctx, ch.id, payload)
}

func (ch *Channel) markLeft() {
	ch.mu.Lock()
	ch.left = true
	ch.mu.Unlock()
}

func (ch *Channel) sendLeave() {
	ch.markLeft()
	if err := ch.conn.write(ch.conn.nextSeq(), CmdLeave, ch.id, "manual"); err != nil {
		log.Debugf("netflux: LEAVE %s: %s", ch.id, err)
	}
}

// Leave leaves the channel. The connection stays open.
func (ch *Channel) Leave() {
	ch.sendLeave()
	ch.conn.dropChannel(ch)
}
