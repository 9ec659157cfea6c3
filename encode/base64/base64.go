// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package base64 implements the base64 dialects spoken by the collaboration
// service.
//
// Keys and public keys are encoded with the standard alphabet. Wherever an
// encoding ends up in a URL or a user hash, only the slash is replaced by a
// dash (the "safe" dialect); the plus sign and the padding are kept.
package base64

import (
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"
)

// base64Encoding defines the standard base64 encoding.
var base64Encoding = base64.StdEncoding

// Decode returns the bytes represented by the base64 string s.
func Decode(s string) ([]byte, error) {
	return base64Encoding.DecodeString(s)
}

// Encode returns the base64 encoding of src.
func Encode(src []byte) string {
	return base64Encoding.EncodeToString(src)
}

// NewDecoder constructs a new base64 stream decoder.
func NewDecoder(r io.Reader) io.Reader {
	return base64.NewDecoder(base64Encoding, r)
}

// NewEncoder returns a new base64 stream encoder.
func NewEncoder(w io.Writer) io.WriteCloser {
	return base64.NewEncoder(base64Encoding, w)
}

// EncodeSafe returns the standard base64 encoding of src with every '/'
// replaced by '-'.
func EncodeSafe(src []byte) string {
	return strings.Replace(Encode(src), "/", "-", -1)
}

// DecodeSafe decodes a string in the safe dialect. Missing padding, as
// found in key strings, is accepted.
func DecodeSafe(s string) ([]byte, error) {
	s = strings.Replace(s, "-", "/", -1)
	s = strings.TrimRight(s, "=")
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return Decode(s)
}

// ToHex converts a base64 encoded channel ID (either dialect) to its
// hexadecimal form.
func ToHex(s string) (string, error) {
	b, err := DecodeSafe(s)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// FromHex converts a hexadecimal channel ID to the standard base64 encoding.
func FromHex(s string) (string, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", err
	}
	return Encode(b), nil
}
