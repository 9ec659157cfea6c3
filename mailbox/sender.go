// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mailbox

import (
	"context"
	"encoding/json"

	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/log"
)

// WritePrivateMessage is the RPC command which appends a sealed message to
// a mailbox channel.
const WritePrivateMessage = "WRITE_PRIVATE_MESSAGE"

// Caller performs RPC calls. It is implemented by *rpc.Client.
type Caller interface {
	Call(ctx context.Context, cmd string, args ...interface{}) (json.RawMessage, error)
}

// Sender seals envelopes and hands them to the relay.
type Sender struct {
	rpc Caller
	box *cryptor.Mailbox
}

// NewSender returns a sender sealing with box and calling over rpc.
func NewSender(rpc Caller, box *cryptor.Mailbox) *Sender {
	return &Sender{rpc: rpc, box: box}
}

// Send seals an envelope of type typ with content for to and asks the relay
// to deliver it.
func (s *Sender) Send(ctx context.Context, typ string, content interface{}, to Recipient) error {
	if !to.valid() {
		return log.Error(ErrInvalidRecipient)
	}
	env, err := NewEnvelope(typ, content)
	if err != nil {
		return log.Error(err)
	}
	plain, err := json.Marshal(env)
	if err != nil {
		return log.Error(err)
	}
	sealed, err := s.box.Seal(string(plain), to.CurvePublic)
	if err != nil {
		return err
	}
	if _, err := s.rpc.Call(ctx, WritePrivateMessage, []string{to.Notifications, sealed}); err != nil {
		return err
	}
	log.Infof("mailbox: sent %s to %s", typ, to.Notifications)
	return nil
}
