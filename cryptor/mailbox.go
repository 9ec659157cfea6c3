// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cryptor

import (
	"io"

	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/padcomm/padctl/log"
)

const (
	keySize      = 32
	sealedPrefix = cipher.NonceSize + keySize
)

// Mailbox seals messages for the mailbox of a single recipient and opens
// messages sealed for the own mailbox.
type Mailbox struct {
	key  *cipher.NaClBoxKey
	rand io.Reader
}

// NewMailbox returns a Mailbox for the own base64 encoded Curve25519 key
// pair.
func NewMailbox(curvePublic, curvePrivate string) (*Mailbox, error) {
	pub, err := DecodeKey32(curvePublic)
	if err != nil {
		return nil, err
	}
	priv, err := DecodeKey32(curvePrivate)
	if err != nil {
		return nil, err
	}
	var k cipher.NaClBoxKey
	if err := k.SetPublicKey(pub[:]); err != nil {
		return nil, err
	}
	if err := k.SetPrivateKey(priv[:]); err != nil {
		return nil, err
	}
	return &Mailbox{key: &k, rand: cipher.RandReader}, nil
}

// PublicKey returns the own base64 encoded Curve25519 public key.
func (m *Mailbox) PublicKey() string {
	return base64.Encode(m.key.PublicKey())
}

// Seal encrypts plain for the owner of the base64 encoded Curve25519 public
// key theirPublic. The inner box is from the own key and carries the own
// public key, the outer box is from an ephemeral key.
func (m *Mailbox) Seal(plain, theirPublic string) (string, error) {
	pub, err := DecodeKey32(theirPublic)
	if err != nil {
		return "", err
	}
	sealed, err := m.key.Seal(m.rand, []byte(plain), pub)
	if err != nil {
		return "", err
	}
	inner := make([]byte, 0, len(sealed)+keySize)
	inner = append(inner, sealed[:cipher.NonceSize]...)
	inner = append(inner, m.key.PublicKey()...)
	inner = append(inner, sealed[cipher.NonceSize:]...)

	ephemeral, err := cipher.NaClBoxGenerate(m.rand)
	if err != nil {
		return "", log.Error(err)
	}
	sealed, err = ephemeral.Seal(m.rand, inner, pub)
	if err != nil {
		return "", err
	}
	outer := make([]byte, 0, len(sealed)+keySize)
	outer = append(outer, sealed[:cipher.NonceSize]...)
	outer = append(outer, ephemeral.PublicKey()...)
	outer = append(outer, sealed[cipher.NonceSize:]...)
	return base64.Encode(outer), nil
}

func (m *Mailbox) open(b []byte) (plain []byte, peer *[32]byte, err error) {
	if len(b) < sealedPrefix {
		return nil, nil, ErrFormat
	}
	peer, err = cipher.Key32(b[cipher.NonceSize:sealedPrefix])
	if err != nil {
		return nil, nil, err
	}
	sealed := make([]byte, 0, len(b)-keySize)
	sealed = append(sealed, b[:cipher.NonceSize]...)
	sealed = append(sealed, b[sealedPrefix:]...)
	plain, err = m.key.Open(sealed, peer)
	if err != nil {
		return nil, nil, err
	}
	return plain, peer, nil
}

// Open decrypts a message sealed for the own mailbox and returns its content
// and the base64 encoded Curve25519 public key of its author.
func (m *Mailbox) Open(msg string) (content, author string, err error) {
	b, err := base64.Decode(msg)
	if err != nil {
		return "", "", ErrFormat
	}
	inner, _, err := m.open(b)
	if err != nil {
		return "", "", err
	}
	plain, sender, err := m.open(inner)
	if err != nil {
		return "", "", err
	}
	return string(plain), base64.Encode(sender[:]), nil
}
