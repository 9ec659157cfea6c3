// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cryptor implements the message encryption schemes used on
// channels.
//
// Edit keys protect shared documents (the drive, pads). They are derived
// from a short seed: SHA-512 of the seed yields an Ed25519 signing seed and a
// secretbox key (version 1) or a view key from which the channel ID and the
// secretbox key are hashed (version 2).
//
// Curve keys protect direct messages between two users. Both sides compute
// the same Curve25519 shared secret and hash it, together with a fixed salt,
// into a signing key pair and a secretbox key.
//
// Edit and curve messages share one format: the secretbox and its nonce are
// encoded as "base64(nonce)|base64(box)", that string is signed (Ed25519
// signature followed by the message) and the result is base64 encoded.
//
// Mailbox messages are sealed for a single recipient with two nested NaCl
// boxes, the outer one from an ephemeral key, so that only the recipient
// learns the sender.
package cryptor
