// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cipher

import (
	"io"

	"github.com/padcomm/padctl/log"
)

// NonceSize is the size of a NaCl nonce.
const NonceSize = 24

// Nonce generates a random 24-byte nonce as used by NaCl box and secretbox.
func Nonce(rand io.Reader) *[NonceSize]byte {
	var n [NonceSize]byte
	_, err := io.ReadFull(rand, n[:])
	if err != nil {
		panic(log.Critical(err))
	}
	return &n
}
