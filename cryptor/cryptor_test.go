// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cryptor

import (
	"bytes"
	"testing"

	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func curvePair(t *testing.T) (pub, priv string) {
	k, err := cipher.NaClBoxGenerate(cipher.RandReader)
	require.NoError(t, err)
	return base64.Encode(k.PublicKey()), base64.Encode(k.PrivateKey())
}

func TestEditKeysV1(t *testing.T) {
	seed := bytes.Repeat([]byte{0xfb}, EditSeedSize)
	a, err := NewEditKeysV1(seed)
	require.NoError(t, err)
	b, err := NewEditKeysV1(seed)
	require.NoError(t, err)
	assert.Equal(t, a.ValidateKey(), b.ValidateKey())
	assert.Equal(t, *a.CryptKey, *b.CryptKey)
	assert.Equal(t, "", a.ChannelHex())
	assert.NotContains(t, a.EditKeyStr, "/")
	_, err = NewEditKeysV1(seed[:10])
	assert.Error(t, err)
}

func TestEditKeysV2(t *testing.T) {
	keys, err := GenerateEditKeysV2("")
	require.NoError(t, err)
	assert.Len(t, keys.ChannelHex(), 32)
	again, err := NewEditKeysV2(keys.EditKeyStr, "")
	require.NoError(t, err)
	assert.Equal(t, keys.ChannelHex(), again.ChannelHex())
	assert.Equal(t, keys.ValidateKey(), again.ValidateKey())
	assert.Equal(t, keys.ViewKeyStr, again.ViewKeyStr)

	withPassword, err := NewEditKeysV2(keys.EditKeyStr, "secret")
	require.NoError(t, err)
	assert.NotEqual(t, keys.ChannelHex(), withPassword.ChannelHex())

	// key strings found in user hashes may use '_' and lack padding
	seed, err := DecodeKeyString(keys.EditKeyStr)
	require.NoError(t, err)
	alt := base64.Encode(seed)
	alt = string(bytes.Replace([]byte(alt), []byte("+"), []byte("_"), -1))
	fromAlt, err := NewEditKeysV2(alt, "")
	require.NoError(t, err)
	assert.Equal(t, keys.ChannelHex(), fromAlt.ChannelHex())

	_, err = NewEditKeysV2("", "")
	assert.Error(t, err)
	_, err = NewEditKeysV2("!!", "")
	assert.Error(t, err)
}

func TestSignedEncryptor(t *testing.T) {
	keys, err := GenerateEditKeysV2("")
	require.NoError(t, err)
	enc := keys.Encryptor()
	msg, err := enc.Encrypt("{\"hello\":\"world\"}")
	require.NoError(t, err)
	plain, err := enc.Decrypt(msg)
	require.NoError(t, err)
	assert.Equal(t, "{\"hello\":\"world\"}", plain)

	// unchecked history read
	reader := NewSignedEncryptor(keys.CryptKey, nil, nil)
	plain, err = reader.Decrypt(msg)
	require.NoError(t, err)
	assert.Equal(t, "{\"hello\":\"world\"}", plain)
	_, err = reader.Encrypt("x")
	assert.Error(t, err)

	// foreign signature
	other, err := GenerateEditKeysV2("")
	require.NoError(t, err)
	forged := NewSignedEncryptor(keys.CryptKey, other.SignKey, nil)
	msg, err = forged.Encrypt("forged")
	require.NoError(t, err)
	_, err = enc.Decrypt(msg)
	assert.ErrorIs(t, err, cipher.ErrSignature)

	// garbage
	for _, s := range []string{"", "not base64!", base64.Encode([]byte("short"))} {
		_, err = enc.Decrypt(s)
		assert.Error(t, err, s)
	}
	_, err = reader.Decrypt(base64.Encode(make([]byte, 70)))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestCurveKeys(t *testing.T) {
	alicePub, alicePriv := curvePair(t)
	bobPub, bobPriv := curvePair(t)
	a, err := DeriveCurveKeys(bobPub, alicePriv)
	require.NoError(t, err)
	b, err := DeriveCurveKeys(alicePub, bobPriv)
	require.NoError(t, err)
	assert.Equal(t, *a.CryptKey, *b.CryptKey)
	assert.Equal(t, *a.SignKey.PublicKey(), *b.SignKey.PublicKey())

	msg, err := a.Encryptor().Encrypt("[\"MSG\",\"x\",1,\"hi\"]")
	require.NoError(t, err)
	plain, err := b.Encryptor().Decrypt(msg)
	require.NoError(t, err)
	assert.Equal(t, "[\"MSG\",\"x\",1,\"hi\"]", plain)

	carolPub, carolPriv := curvePair(t)
	c, err := DeriveCurveKeys(carolPub, alicePriv)
	require.NoError(t, err)
	_, err = c.Encryptor().Decrypt(msg)
	assert.Error(t, err)
	_, err = DeriveCurveKeys("invalid", carolPriv)
	assert.Error(t, err)
	_, err = DeriveCurveKeys(carolPub, base64.Encode([]byte("short")))
	assert.Error(t, err)
}

func TestMailbox(t *testing.T) {
	alicePub, alicePriv := curvePair(t)
	bobPub, bobPriv := curvePair(t)
	alice, err := NewMailbox(alicePub, alicePriv)
	require.NoError(t, err)
	bob, err := NewMailbox(bobPub, bobPriv)
	require.NoError(t, err)
	assert.Equal(t, alicePub, alice.PublicKey())

	sealed, err := alice.Seal("{\"type\":\"FRIEND_REQUEST\"}", bobPub)
	require.NoError(t, err)
	content, author, err := bob.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "{\"type\":\"FRIEND_REQUEST\"}", content)
	assert.Equal(t, alicePub, author)

	// only the recipient can open it
	_, _, err = alice.Open(sealed)
	assert.Error(t, err)
	// two seals of the same message differ
	again, err := alice.Seal("{\"type\":\"FRIEND_REQUEST\"}", bobPub)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)

	_, _, err = bob.Open("garbage!")
	assert.ErrorIs(t, err, ErrFormat)
	_, _, err = bob.Open(base64.Encode([]byte("short")))
	assert.ErrorIs(t, err, ErrFormat)
	_, err = alice.Seal("x", "invalid")
	assert.Error(t, err)
	_, err = NewMailbox("invalid", alicePriv)
	assert.Error(t, err)
}
