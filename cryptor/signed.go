// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cryptor

import (
	"errors"
	"io"
	"strings"

	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/padcomm/padctl/log"
)

// ErrFormat is returned if a ciphertext is not in the expected format.
var ErrFormat = errors.New("cryptor: malformed ciphertext")

// Encryptor encrypts and decrypts channel messages.
type Encryptor interface {
	Encrypt(plain string) (string, error)
	Decrypt(msg string) (string, error)
}

// SignedEncryptor implements the signed secretbox scheme shared by edit and
// curve keys.
type SignedEncryptor struct {
	cryptKey *[32]byte
	signKey  *cipher.Ed25519Key // may be nil for read-only access
	validate *cipher.Ed25519Key // may be nil to skip signature checks
	rand     io.Reader
}

// NewSignedEncryptor returns an encryptor for the given secretbox key.
// signKey is required for Encrypt, validateKey is used by Decrypt to check
// signatures. If validateKey is nil the signature is stripped unchecked,
// which is how history replayed by the server is read.
func NewSignedEncryptor(cryptKey *[32]byte, signKey, validateKey *cipher.Ed25519Key) *SignedEncryptor {
	return &SignedEncryptor{
		cryptKey: cryptKey,
		signKey:  signKey,
		validate: validateKey,
		rand:     cipher.RandReader,
	}
}

// Encrypt encrypts and signs plain.
func (e *SignedEncryptor) Encrypt(plain string) (string, error) {
	if e.signKey == nil {
		return "", log.Error("cryptor: Encrypt(): no signing key")
	}
	nonce, box, err := cipher.SecretboxSealRandom(e.rand, []byte(plain), e.cryptKey)
	if err != nil {
		return "", err
	}
	inner := base64.Encode(nonce[:]) + "|" + base64.Encode(box)
	return base64.Encode(e.signKey.SignCombined([]byte(inner))), nil
}

// Decrypt verifies and decrypts msg. Errors are not logged, undecryptable
// messages are part of normal channel traffic.
func (e *SignedEncryptor) Decrypt(msg string) (string, error) {
	signed, err := base64.Decode(msg)
	if err != nil {
		return "", ErrFormat
	}
	var inner []byte
	if e.validate != nil {
		inner, err = e.validate.OpenCombined(signed)
		if err != nil {
			return "", err
		}
	} else {
		if len(signed) < 64 {
			return "", ErrFormat
		}
		inner = signed[64:]
	}
	return openInner(string(inner), e.cryptKey)
}

func openInner(inner string, key *[32]byte) (string, error) {
	parts := strings.Split(inner, "|")
	if len(parts) != 2 {
		return "", ErrFormat
	}
	n, err := base64.Decode(parts[0])
	if err != nil || len(n) != cipher.NonceSize {
		return "", ErrFormat
	}
	box, err := base64.Decode(parts[1])
	if err != nil {
		return "", ErrFormat
	}
	var nonce [cipher.NonceSize]byte
	copy(nonce[:], n)
	plain, err := cipher.SecretboxOpen(box, &nonce, key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
