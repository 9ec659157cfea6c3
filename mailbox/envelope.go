// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mailbox

import (
	"encoding/json"
)

// Envelope types.
const (
	FriendRequest        = "FRIEND_REQUEST"
	AcceptFriendRequest  = "ACCEPT_FRIEND_REQUEST"
	DeclineFriendRequest = "DECLINE_FRIEND_REQUEST"
)

// Envelope is a mailbox message.
type Envelope struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// NewEnvelope marshals content into an envelope of the given type.
func NewEnvelope(typ string, content interface{}) (*Envelope, error) {
	b, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return &Envelope{Type: typ, Content: b}, nil
}

// ParseEnvelope parses an envelope.
func ParseEnvelope(s string) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil || env.Type == "" {
		return nil, ErrEnvelope
	}
	return &env, nil
}

// UserData describes a user to a (future) friend.
type UserData struct {
	DisplayName   string `json:"displayName"`
	CurvePublic   string `json:"curvePublic"`
	EdPublic      string `json:"edPublic,omitempty"`
	Notifications string `json:"notifications"`
	// Channel is the conversation channel, set when a request is accepted.
	Channel string `json:"channel,omitempty"`
}

// Recipient addresses the mailbox of a user.
type Recipient struct {
	CurvePublic   string
	Notifications string
	DisplayName   string
}

func (r Recipient) valid() bool {
	return r.CurvePublic != "" && r.Notifications != ""
}
