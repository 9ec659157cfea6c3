// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cryptor

import (
	"encoding/hex"
	"strings"

	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/def"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/util/bzero"
)

// EditSeedSize is the size of the seed an edit key string encodes.
const EditSeedSize = def.EditSeedSize

// EditKeys are the keys of a shared document with edit rights.
type EditKeys struct {
	// EditKeyStr is the seed in the safe base64 dialect.
	EditKeyStr string
	// ViewKeyStr is the read-only key in the safe base64 dialect.
	ViewKeyStr string
	// ChanID is the channel derived from the view key (version 2 keys only).
	ChanID []byte
	// SignKey signs outgoing patches.
	SignKey *cipher.Ed25519Key
	// CryptKey is the secretbox key of the document.
	CryptKey *[32]byte
}

// ValidateKey returns the base64 encoded public signing key, which channel
// members use to validate patches.
func (k *EditKeys) ValidateKey() string {
	return base64.Encode(k.SignKey.PublicKey()[:])
}

// ChannelHex returns the hex encoded channel derived from a version 2 key, or
// the empty string.
func (k *EditKeys) ChannelHex() string {
	if k.ChanID == nil {
		return ""
	}
	return hex.EncodeToString(k.ChanID)
}

// Encryptor returns the encryptor for the document. History replayed from
// the server is decrypted with the same encryptor, signatures are checked
// against the validate key.
func (k *EditKeys) Encryptor() *SignedEncryptor {
	return NewSignedEncryptor(k.CryptKey, k.SignKey, k.SignKey)
}

func signKeyFrom(hash []byte) (*cipher.Ed25519Key, error) {
	return cipher.Ed25519FromSeed(hash[:32])
}

// NewEditKeysV1 derives version 1 edit keys from an 18-byte seed, as used by
// legacy drives whose channel is derived separately.
func NewEditKeysV1(seed []byte) (*EditKeys, error) {
	if len(seed) != EditSeedSize {
		return nil, log.Errorf("cryptor: NewEditKeysV1(): len(seed) = %d != %d", len(seed), EditSeedSize)
	}
	hash := cipher.SHA512(seed)
	defer bzero.Bytes(hash)
	signKey, err := signKeyFrom(hash)
	if err != nil {
		return nil, err
	}
	cryptKey, err := cipher.Key32(hash[32:64])
	if err != nil {
		return nil, err
	}
	return &EditKeys{
		EditKeyStr: base64.EncodeSafe(seed),
		ViewKeyStr: base64.EncodeSafe(cryptKey[:]),
		SignKey:    signKey,
		CryptKey:   cryptKey,
	}, nil
}

// NewEditKeysV2 derives version 2 edit keys from an edit key string and an
// optional document password. The channel is derived from the key.
func NewEditKeysV2(keyStr, password string) (*EditKeys, error) {
	seed, err := DecodeKeyString(keyStr)
	if err != nil {
		return nil, err
	}
	hash := cipher.SHA512(seed, []byte(password))
	defer bzero.Bytes(hash)
	signKey, err := signKeyFrom(hash)
	if err != nil {
		return nil, err
	}
	viewKey := make([]byte, 32)
	copy(viewKey, hash[32:64])
	keys, err := viewKeysV2(viewKey, password)
	if err != nil {
		return nil, err
	}
	keys.EditKeyStr = base64.EncodeSafe(seed)
	keys.SignKey = signKey
	return keys, nil
}

// GenerateEditKeysV2 generates version 2 edit keys for a new document.
func GenerateEditKeysV2(password string) (*EditKeys, error) {
	seed, err := cipher.RandBytes(cipher.RandReader, EditSeedSize)
	if err != nil {
		return nil, log.Error(err)
	}
	return NewEditKeysV2(base64.EncodeSafe(seed), password)
}

func viewKeysV2(viewKey []byte, password string) (*EditKeys, error) {
	hash := cipher.SHA512(viewKey, []byte(password))
	defer bzero.Bytes(hash)
	cryptKey, err := cipher.Key32(hash[16:48])
	if err != nil {
		return nil, err
	}
	chanID := make([]byte, 16)
	copy(chanID, hash[:16])
	return &EditKeys{
		ViewKeyStr: base64.EncodeSafe(viewKey),
		ChanID:     chanID,
		CryptKey:   cryptKey,
	}, nil
}

// DecodeKeyString decodes an edit key string. Key strings are found with
// '-' or '_' in place of the slash and the plus sign and usually lack the
// padding.
func DecodeKeyString(keyStr string) ([]byte, error) {
	if keyStr == "" {
		return nil, log.Error("cryptor: empty key string")
	}
	b, err := base64.DecodeSafe(strings.Replace(keyStr, "_", "+", -1))
	if err != nil {
		return nil, log.Error(err)
	}
	return b, nil
}
