// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cipher

import (
	"errors"
)

// ErrDecrypt is returned if a NaCl box or secretbox could not be opened.
var ErrDecrypt = errors.New("cipher: decryption failed")

// ErrSignature is returned if an Ed25519 signature does not verify.
var ErrSignature = errors.New("cipher: signature verification failed")
