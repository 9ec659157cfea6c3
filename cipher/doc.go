// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cipher wraps the NaCl primitives (Curve25519, Ed25519, box, and
// secretbox) and SHA-512 as used by the padctl protocol packages.
package cipher
