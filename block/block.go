// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package block implements the client of the block store.
//
// A block is a small encrypted record at a URL derived from the account's
// block seed. It points to the account's drive (the user hash) and may carry
// the account's public keys. Its format is one version byte, a 24-byte nonce,
// and a NaCl secretbox.
package block

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/def"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/padcomm/padctl/log"
)

// Version is the block format version written by Seal.
const Version = 0

var (
	// ErrNotFound is returned if there is no block at the URL.
	ErrNotFound = errors.New("block: not found")
	// ErrDecrypt is returned if a block could not be decrypted.
	ErrDecrypt = errors.New("block: decryption failed")
	// ErrMalformed is returned if a decrypted block is not a JSON object.
	ErrMalformed = errors.New("block: malformed content")
)

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("block: fetch failed: HTTP %d", e.StatusCode)
}

// Keys are the keys of a block.
type Keys struct {
	// Sign is the key pair whose public key addresses the block.
	Sign *cipher.Ed25519Key
	// Symmetric is the secretbox key of the block.
	Symmetric *[32]byte
}

// NewKeys derives the block keys from the 64-byte block seed: the first half
// seeds the signing key pair, the second half is the symmetric key.
func NewKeys(seed []byte) (*Keys, error) {
	if len(seed) != def.BlockSeedSize {
		return nil, log.Errorf("block: NewKeys(): len(seed) = %d != %d", len(seed), def.BlockSeedSize)
	}
	sign, err := cipher.Ed25519FromSeed(seed[:32])
	if err != nil {
		return nil, err
	}
	symmetric, err := cipher.Key32(seed[32:64])
	if err != nil {
		return nil, err
	}
	return &Keys{Sign: sign, Symmetric: symmetric}, nil
}

// URL returns the block URL below base.
func (k *Keys) URL(base string) string {
	pk := base64.EncodeSafe(k.Sign.PublicKey()[:])
	return strings.TrimRight(base, "/") + "/block/" + pk[:2] + "/" + pk
}

// Hash returns the block URL together with the symmetric key, the form in
// which a block is shared.
func (k *Keys) Hash(base string) string {
	return k.URL(base) + "#" + base64.EncodeSafe(k.Symmetric[:])
}

// Record is the content of a block.
type Record struct {
	UserHash    string
	EdPublic    string
	CurvePublic string
	Extra       map[string]interface{}
}

// UnmarshalJSON accepts both spellings of the user hash field.
func (r *Record) UnmarshalJSON(b []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m == nil {
		return ErrMalformed
	}
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	r.UserHash = str("User_hash")
	if r.UserHash == "" {
		r.UserHash = str("userHash")
	}
	r.EdPublic = str("edPublic")
	r.CurvePublic = str("curvePublic")
	r.Extra = m
	return nil
}

// MarshalJSON writes the record the way the web client does.
func (r *Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r.Extra)+3)
	for k, v := range r.Extra {
		m[k] = v
	}
	if r.UserHash != "" {
		m["User_hash"] = r.UserHash
	}
	if r.EdPublic != "" {
		m["edPublic"] = r.EdPublic
	}
	if r.CurvePublic != "" {
		m["curvePublic"] = r.CurvePublic
	}
	return json.Marshal(m)
}

// Seal encrypts record for the block with the given keys.
func Seal(record *Record, keys *Keys) ([]byte, error) {
	plain, err := json.Marshal(record)
	if err != nil {
		return nil, log.Error(err)
	}
	nonce, box, err := cipher.SecretboxSealRandom(cipher.RandReader, plain, keys.Symmetric)
	if err != nil {
		return nil, err
	}
	blob := make([]byte, 0, 1+cipher.NonceSize+len(box))
	blob = append(blob, Version)
	blob = append(blob, nonce[:]...)
	return append(blob, box...), nil
}

// Decrypt decrypts a block fetched with Fetch.
func Decrypt(blob []byte, keys *Keys) (*Record, error) {
	if len(blob) < 1+cipher.NonceSize+cipher.SecretboxOverhead {
		return nil, ErrDecrypt
	}
	var nonce [cipher.NonceSize]byte
	copy(nonce[:], blob[1:1+cipher.NonceSize])
	plain, err := cipher.SecretboxOpen(blob[1+cipher.NonceSize:], &nonce, keys.Symmetric)
	if err != nil {
		return nil, ErrDecrypt
	}
	var r Record
	if err := json.Unmarshal(plain, &r); err != nil {
		return nil, ErrMalformed
	}
	return &r, nil
}

// Client fetches blocks from a block store.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for the block store at the HTTP origin base.
// If httpClient is nil a client with def.HTTPTimeout is used.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: def.HTTPTimeout}
	}
	return &Client{base: base, http: httpClient}
}

// Base returns the HTTP origin of the block store.
func (c *Client) Base() string {
	return c.base
}

func readBody(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(&io.LimitedReader{R: rc, N: def.MaxBlockSize})
}

// Fetch fetches the raw block addressed by keys. A missing block results in
// ErrNotFound, other unexpected status codes in a *StatusError.
func (c *Client) Fetch(ctx context.Context, keys *Keys) ([]byte, error) {
	url := keys.URL(c.base)
	log.Debugf("block: fetch %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, log.Error(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, log.Error(err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		log.Infof("block: no block at %s", url)
		return nil, ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		resp.Body.Close()
		return nil, log.Error(&StatusError{StatusCode: resp.StatusCode})
	}
	p, err := readBody(resp.Body)
	if err != nil {
		return nil, log.Error(err)
	}
	return p, nil
}

// Get fetches and decrypts the block addressed by keys.
func (c *Client) Get(ctx context.Context, keys *Keys) (*Record, error) {
	blob, err := c.Fetch(ctx, keys)
	if err != nil {
		return nil, err
	}
	return Decrypt(blob, keys)
}
