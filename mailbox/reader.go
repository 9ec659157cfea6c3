// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mailbox

import (
	"context"
	"encoding/json"

	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/netflux"
)

// HashSize is the length of the ciphertext prefix identifying a message.
const HashSize = 64

// Item is a message read from a mailbox.
type Item struct {
	Envelope
	// Author is the curve public key of the sender.
	Author string
	// Hash identifies the message.
	Hash string
}

// Reader reads mailboxes.
type Reader struct {
	dial netflux.Dialer
	box  *cryptor.Mailbox
}

// NewReader returns a reader which opens messages with box. Every read
// replays the mailbox on a fresh connection.
func NewReader(dial netflux.Dialer, box *cryptor.Mailbox) *Reader {
	return &Reader{dial: dial, box: box}
}

// Read replays the mailbox channel chanID and returns the messages it could
// open, in order. validateKey is the edPublic of the mailbox owner.
func (r *Reader) Read(ctx context.Context, chanID, validateKey string) ([]Item, error) {
	if chanID == "" {
		return nil, log.Error(ErrNoMailbox)
	}
	conn, err := r.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Shutdown()
	ch, err := conn.Join(ctx, chanID)
	if err != nil {
		return nil, err
	}
	var items []Item
	req := netflux.HistoryRequest{ValidateKey: validateKey, Owners: []string{}}
	_, err = ch.History(ctx, req, func(m netflux.Message) {
		if item, ok := r.open(m.Payload); ok {
			items = append(items, *item)
		}
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("mailbox: read %d message(s) from %s", len(items), chanID)
	return items, nil
}

func (r *Reader) open(payload string) (*Item, bool) {
	plain, author, err := r.box.Open(payload)
	if err != nil {
		log.Tracef("mailbox: dropping message: %s", err)
		return nil, false
	}
	env, err := ParseEnvelope(plain)
	if err != nil {
		log.Debugf("mailbox: dropping message: %s", err)
		return nil, false
	}
	hash := payload
	if len(hash) > HashSize {
		hash = hash[:HashSize]
	}
	return &Item{Envelope: *env, Author: author, Hash: hash}, true
}

// Request is a friend request found in a mailbox.
type Request struct {
	UserData
	Hash string
}

// Requests returns the friend requests among items, the latest one per
// sender. Requests whose content does not match the sender are dropped.
func Requests(items []Item) []Request {
	var (
		reqs  []Request
		index = make(map[string]int)
	)
	for _, item := range items {
		if item.Type != FriendRequest {
			continue
		}
		var data UserData
		if err := json.Unmarshal(item.Content, &data); err != nil {
			continue
		}
		if data.CurvePublic != item.Author {
			log.Debugf("mailbox: dropping friend request with forged key")
			continue
		}
		req := Request{UserData: data, Hash: item.Hash}
		if i, ok := index[data.CurvePublic]; ok {
			reqs[i] = req
			continue
		}
		index[data.CurvePublic] = len(reqs)
		reqs = append(reqs, req)
	}
	return reqs
}
