// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cipher

import (
	"crypto/sha512"
)

// SHA512 computes the SHA512 hash of the given buffers, concatenated.
// SHA512 is used to stretch seeds into signing and encryption keys.
func SHA512(buffers ...[]byte) []byte {
	hash := sha512.New()
	for _, buffer := range buffers {
		hash.Write(buffer)
	}
	return hash.Sum(make([]byte, 0, sha512.Size))
}
