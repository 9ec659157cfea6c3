// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package messenger implements direct messages between two friends.

The conversation with a friend lives in a channel both of them know. Every
message is encrypted with keys derived from the Curve25519 keys of the two
users, so only they can read it. A message is the JSON array

	["MSG", authorCurvePublic, timestampMillis, text]

and the pair (author, timestamp) identifies it: history replays and live
delivery are merged into one log without duplicates, in timestamp order.

Each conversation is a Session on its own relay connection. Sessions are
kept in a Registry, which opens at most one Session per channel.
*/
package messenger
