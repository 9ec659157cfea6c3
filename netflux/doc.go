// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package netflux implements the client side of the channel relay protocol.
//
// A connection carries JSON array frames over a websocket. Requests carry a
// sequence number which is unique per connection; the reply with the same
// sequence number resolves the request. Unsolicited frames have the form
//
//	[0, "", "IDENT", <own id>]
//	[0, <peer>, "JOIN", <channel>]
//	[0, <peer>, "LEAVE", <channel>, <reason>]
//	[0, <peer>, "MSG", <channel or own id>, <payload>]
//
// The first peer observed on a channel is taken as its history keeper, a
// server-side peer which replays the channel history on request and relays
// RPC calls. The heuristic can be overridden per deployment.
package netflux
