// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cryptor

import (
	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/def"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/util/bzero"
)

// CurveKeys are the symmetric keys two users share for direct messages.
type CurveKeys struct {
	CryptKey *[32]byte
	SignKey  *cipher.Ed25519Key
}

// DecodeKey32 decodes a base64 encoded 32-byte key.
func DecodeKey32(s string) (*[32]byte, error) {
	b, err := base64.Decode(s)
	if err != nil {
		return nil, log.Error(err)
	}
	return cipher.Key32(b)
}

// DeriveCurveKeys derives the keys shared with the owner of theirPublic from
// the own Curve25519 private key. Both keys are base64 encoded. Both sides of
// a conversation derive the same keys.
func DeriveCurveKeys(theirPublic, myPrivate string) (*CurveKeys, error) {
	pub, err := DecodeKey32(theirPublic)
	if err != nil {
		return nil, err
	}
	priv, err := DecodeKey32(myPrivate)
	if err != nil {
		return nil, err
	}
	defer bzero.Array32(priv)
	var k cipher.NaClBoxKey
	if err := k.SetPrivateKey(priv[:]); err != nil {
		return nil, err
	}
	shared := k.Precompute(pub)
	defer bzero.Array32(shared)
	hash := cipher.SHA512([]byte(def.SigningKeySalt), shared[:])
	defer bzero.Bytes(hash)
	signKey, err := cipher.Ed25519FromSeed(hash[:32])
	if err != nil {
		return nil, err
	}
	cryptKey, err := cipher.Key32(hash[32:64])
	if err != nil {
		return nil, err
	}
	return &CurveKeys{CryptKey: cryptKey, SignKey: signKey}, nil
}

// Encryptor returns the encryptor for direct messages with these keys.
func (k *CurveKeys) Encryptor() *SignedEncryptor {
	return NewSignedEncryptor(k.CryptKey, k.SignKey, k.SignKey)
}
