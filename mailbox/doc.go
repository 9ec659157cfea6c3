// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package mailbox implements one-shot notifications to other users.

Every user has a notifications mailbox, a channel only they can read.
Messages for it are envelopes

	{"type": "FRIEND_REQUEST", "content": {...}}

sealed for the Curve25519 key of the owner. A sender cannot write to the
mailbox channel directly: it asks the relay to append the sealed envelope
with the WRITE_PRIVATE_MESSAGE call. The owner reads the mailbox by
replaying the history of its channel.

Friend requests, their acceptance and their refusal travel this way.
*/
package mailbox
