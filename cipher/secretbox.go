// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cipher

import (
	"io"

	"github.com/padcomm/padctl/log"
	"golang.org/x/crypto/nacl/secretbox"
)

// SecretboxOverhead is the number of bytes of overhead when boxing a message.
const SecretboxOverhead = secretbox.Overhead

// SecretboxSeal encrypts and authenticates message with key and the given
// nonce. The result does not contain the nonce.
func SecretboxSeal(message []byte, nonce *[NonceSize]byte, key *[32]byte) []byte {
	return secretbox.Seal(nil, message, nonce, key)
}

// SecretboxOpen authenticates and decrypts box with key and nonce.
// It returns ErrDecrypt if the box could not be opened.
func SecretboxOpen(box []byte, nonce *[NonceSize]byte, key *[32]byte) ([]byte, error) {
	message, ok := secretbox.Open(nil, box, nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	return message, nil
}

// SecretboxSealRandom seals message with a random nonce read from rand and
// returns the nonce along with the box.
func SecretboxSealRandom(rand io.Reader, message []byte, key *[32]byte) (*[NonceSize]byte, []byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand, nonce[:]); err != nil {
		return nil, nil, log.Error(err)
	}
	return &nonce, SecretboxSeal(message, &nonce, key), nil
}

// Key32 copies a 32-byte key from b.
func Key32(b []byte) (*[32]byte, error) {
	if len(b) != 32 {
		return nil, log.Errorf("cipher: Key32(): len(b) = %d != 32", len(b))
	}
	var k [32]byte
	copy(k[:], b)
	return &k, nil
}
