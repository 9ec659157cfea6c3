// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package drive opens the data channel of a user and keeps the replicated
// state of the drive up to date.
package drive

import (
	"context"
	"sync"

	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/netflux"
)

// Drive is an open drive channel.
type Drive struct {
	ch     *netflux.Channel
	chanID string
	keys   *cryptor.EditKeys
	enc    *cryptor.SignedEncryptor
	engine Engine

	mu          sync.Mutex
	replaying   bool
	buffered    []string
	complete    bool
	unsubscribe func()
}

// Open joins the drive channel chanID on conn, replays its history into
// engine and keeps applying live patches until the drive is closed.
func Open(ctx context.Context, conn *netflux.Conn, chanID string, keys *cryptor.EditKeys, engine Engine) (*Drive, error) {
	if engine == nil {
		engine = NewSnapshotEngine()
	}
	d := &Drive{
		chanID:    chanID,
		keys:      keys,
		enc:       keys.Encryptor(),
		engine:    engine,
		replaying: true,
	}
	if err := d.join(ctx, conn); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Drive) join(ctx context.Context, conn *netflux.Conn) error {
	ch, err := conn.Join(ctx, d.chanID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.ch = ch
	d.replaying = true
	d.mu.Unlock()
	unsubscribe := ch.OnMessage(d.live)
	complete, err := ch.History(ctx, netflux.HistoryRequest{
		ValidateKey: d.keys.ValidateKey(),
	}, func(m netflux.Message) {
		d.apply(m.Payload)
	})
	if err != nil {
		unsubscribe()
		ch.Leave()
		return err
	}
	d.mu.Lock()
	d.complete = complete
	d.replaying = false
	buffered := d.buffered
	d.buffered = nil
	d.unsubscribe = unsubscribe
	d.mu.Unlock()
	for _, patch := range buffered {
		d.apply(patch)
	}
	log.Infof("drive: opened %s (history complete: %t)", d.chanID, complete)
	return nil
}

func (d *Drive) live(m netflux.Message) {
	d.mu.Lock()
	if d.replaying {
		d.buffered = append(d.buffered, m.Payload)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.apply(m.Payload)
}

func (d *Drive) apply(payload string) {
	patch, err := d.enc.Decrypt(payload)
	if err != nil {
		log.Debugf("drive: dropping undecryptable patch on %s: %s", d.chanID, err)
		return
	}
	if err := d.engine.ApplyRemote(patch); err != nil {
		log.Warnf("drive: patch rejected on %s: %s", d.chanID, err)
	}
}

// Reconnect joins the drive channel again on conn, after the network was
// reconnected.
func (d *Drive) Reconnect(ctx context.Context, conn *netflux.Conn) error {
	d.mu.Lock()
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.mu.Unlock()
	return d.join(ctx, conn)
}

// ChannelID returns the drive channel.
func (d *Drive) ChannelID() string {
	return d.chanID
}

// Conn returns the connection the drive channel is joined on.
func (d *Drive) Conn() *netflux.Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ch.Conn()
}

// Keys returns the edit keys of the drive.
func (d *Drive) Keys() *cryptor.EditKeys {
	return d.keys
}

// Complete reports whether the history keeper signaled the end of the
// history replay.
func (d *Drive) Complete() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.complete
}

// State returns the current drive state.
func (d *Drive) State() map[string]interface{} {
	return d.engine.State()
}

// Profile returns the profile kept in the drive state.
func (d *Drive) Profile() *Profile {
	return ProfileFromState(d.engine.State())
}

// Push encrypts a locally produced patch and broadcasts it on the channel.
func (d *Drive) Push(ctx context.Context, patch string) error {
	msg, err := d.enc.Encrypt(patch)
	if err != nil {
		return err
	}
	d.mu.Lock()
	ch := d.ch
	d.mu.Unlock()
	err = ch.Broadcast(ctx, msg)
	if err == nil || err == netflux.ErrAckTimeout {
		// the relay does not echo our own messages
		d.apply(msg)
	}
	return err
}

// Close leaves the drive channel.
func (d *Drive) Close() {
	d.mu.Lock()
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	ch := d.ch
	d.mu.Unlock()
	ch.Leave()
}
