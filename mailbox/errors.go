// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mailbox

import (
	"errors"
)

var (
	// ErrAlreadyFriends is returned for friend requests to friends.
	ErrAlreadyFriends = errors.New("mailbox: already friends")
	// ErrAlreadyPending is returned if a friend request to the recipient is
	// already pending.
	ErrAlreadyPending = errors.New("mailbox: friend request already pending")
	// ErrRequestNotFound is returned if no matching friend request is in
	// the mailbox.
	ErrRequestNotFound = errors.New("mailbox: friend request not found")
	// ErrInvalidRecipient is returned for recipients without key or mailbox
	// and for requests to oneself.
	ErrInvalidRecipient = errors.New("mailbox: invalid recipient")
	// ErrNoMailbox is returned if the own profile has no notifications
	// mailbox.
	ErrNoMailbox = errors.New("mailbox: no notifications mailbox")
	// ErrEnvelope is returned for messages which are not an envelope.
	ErrEnvelope = errors.New("mailbox: malformed envelope")
)
