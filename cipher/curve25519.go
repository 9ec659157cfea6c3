// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cipher

import (
	"io"

	"github.com/padcomm/padctl/log"
	"golang.org/x/crypto/curve25519"
)

// Curve25519Key holds a Curve25519 key pair.
type Curve25519Key struct {
	publicKey  *[32]byte
	privateKey *[32]byte
}

// Curve25519Generate generates a new Curve25519 key pair.
func Curve25519Generate(rand io.Reader) (*Curve25519Key, error) {
	var c Curve25519Key
	c.privateKey = new([32]byte)
	if _, err := io.ReadFull(rand, c.privateKey[:]); err != nil {
		return nil, err
	}
	c.publicKey = new([32]byte)
	curve25519.ScalarBaseMult(c.publicKey, c.privateKey)
	return &c, nil
}

// Curve25519FromSecret returns the Curve25519 key pair with the given 32-byte
// secret key. The public key is derived from it.
func Curve25519FromSecret(secret []byte) (*Curve25519Key, error) {
	var c Curve25519Key
	if err := c.SetPrivateKey(secret); err != nil {
		return nil, err
	}
	c.publicKey = new([32]byte)
	curve25519.ScalarBaseMult(c.publicKey, c.privateKey)
	return &c, nil
}

// PublicKey returns the public key of an curve25519Key.
func (c *Curve25519Key) PublicKey() *[32]byte {
	return c.publicKey
}

// PrivateKey returns the private key of an curve25519Key.
func (c *Curve25519Key) PrivateKey() *[32]byte {
	return c.privateKey
}

// SetPrivateKey sets the private key of curve25519Key to key.
// SetPrivateKey returns an error, if len(key) != 32.
func (c *Curve25519Key) SetPrivateKey(key []byte) error {
	if len(key) != 32 {
		return log.Errorf("cipher: Curve25519Key.SetPrivateKey(): len(key) = %d != 32", len(key))
	}
	c.privateKey = new([32]byte)
	copy(c.privateKey[:], key)
	return nil
}
