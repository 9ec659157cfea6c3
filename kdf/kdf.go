// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kdf derives all key material of an account from its username and
// password.
//
// The username, lower-cased, is the scrypt salt and the password is the
// secret. The 192-byte output is partitioned as follows:
//
//	offset  size  name
//	     0    18  edit seed      (legacy drive edit key)
//	    18    16  channel seed   (legacy drive channel)
//	    34    32  curve seed     (legacy Curve25519 secret key)
//	    66    32  ed seed        (legacy Ed25519 seed)
//	    98    64  block seed     (block signing seed and block key)
//	   162    30  reserved
package kdf

import (
	"context"
	"errors"
	"strings"

	"github.com/padcomm/padctl/def"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/util/bzero"
	"golang.org/x/crypto/scrypt"
)

// ErrInvalidCredentials is returned if the username or the password is empty.
var ErrInvalidCredentials = errors.New("kdf: username and password must not be empty")

// Part describes one slice of the derived key material.
type Part struct {
	Name   string
	Offset int
	Size   int
}

// Layout is the partition of the derived key material.
var Layout = []Part{
	{"edit", 0, def.EditSeedSize},
	{"channel", 18, def.ChannelSeedSize},
	{"curve", 34, def.CurveSeedSize},
	{"ed", 66, def.EdSeedSize},
	{"block", 98, def.BlockSeedSize},
	{"reserved", 162, def.ReservedSize},
}

const (
	editPart = iota
	channelPart
	curvePart
	edPart
	blockPart
	reservedPart
)

// Material is the key material derived from a username and password pair.
// All accessors return copies. Call Wipe once the keys have been derived.
type Material struct {
	buf []byte
}

// NewMaterial returns key material from a copy of buf, which must have been
// derived before.
func NewMaterial(buf []byte) (*Material, error) {
	if len(buf) != def.DerivedKeySize {
		return nil, log.Errorf("kdf: NewMaterial(): len(buf) = %d != %d", len(buf), def.DerivedKeySize)
	}
	b := make([]byte, len(buf))
	copy(b, buf)
	return &Material{buf: b}, nil
}

func (m *Material) part(i int) []byte {
	p := Layout[i]
	b := make([]byte, p.Size)
	copy(b, m.buf[p.Offset:p.Offset+p.Size])
	return b
}

// EditSeed returns the seed of the legacy drive edit key.
func (m *Material) EditSeed() []byte { return m.part(editPart) }

// ChannelSeed returns the legacy drive channel ID.
func (m *Material) ChannelSeed() []byte { return m.part(channelPart) }

// CurveSeed returns the legacy Curve25519 secret key.
func (m *Material) CurveSeed() []byte { return m.part(curvePart) }

// EdSeed returns the legacy Ed25519 seed.
func (m *Material) EdSeed() []byte { return m.part(edPart) }

// BlockSeed returns the seed the block keys are derived from.
func (m *Material) BlockSeed() []byte { return m.part(blockPart) }

// Reserved returns the unused tail of the key material.
func (m *Material) Reserved() []byte { return m.part(reservedPart) }

// Bytes returns a copy of the complete key material.
func (m *Material) Bytes() []byte {
	b := make([]byte, len(m.buf))
	copy(b, m.buf)
	return b
}

// Wipe overwrites the key material with zeros.
func (m *Material) Wipe() {
	bzero.Bytes(m.buf)
}

// Derive derives the key material for the given username and password.
// It is deterministic and takes a noticeable amount of CPU time and memory.
func Derive(username, password string) (*Material, error) {
	if username == "" || password == "" {
		return nil, log.Error(ErrInvalidCredentials)
	}
	salt := []byte(strings.ToLower(username))
	buf, err := scrypt.Key([]byte(password), salt, def.ScryptN, def.ScryptR,
		def.ScryptP, def.DerivedKeySize)
	if err != nil {
		return nil, log.Error(err)
	}
	if len(buf) != def.DerivedKeySize {
		return nil, log.Errorf("kdf: len(buf) = %d != %d", len(buf), def.DerivedKeySize)
	}
	return &Material{buf: buf}, nil
}

// DeriveContext calls Derive on its own goroutine and returns early if ctx is
// done. The computation itself can not be interrupted, its result is wiped
// when it arrives after ctx is done.
func DeriveContext(ctx context.Context, username, password string) (*Material, error) {
	type result struct {
		m   *Material
		err error
	}
	done := make(chan result, 1)
	go func() {
		m, err := Derive(username, password)
		done <- result{m, err}
	}()
	select {
	case r := <-done:
		return r.m, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.m != nil {
				r.m.Wipe()
			}
		}()
		return nil, log.Error(ctx.Err())
	}
}
