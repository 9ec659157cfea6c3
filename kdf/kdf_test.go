// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/padcomm/padctl/def"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDeterministic(t *testing.T) {
	a, err := Derive("alice", "correct-horse")
	require.NoError(t, err)
	b, err := Derive("alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Len(t, a.Bytes(), def.DerivedKeySize)
	assert.Equal(t, a.BlockSeed(), b.BlockSeed())
}

func TestDeriveUsernameCase(t *testing.T) {
	a, err := Derive("Alice", "correct-horse")
	require.NoError(t, err)
	b, err := Derive("alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())
	c, err := Derive("alice", "Correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, a.Bytes(), c.Bytes())
}

func TestDeriveInvalidCredentials(t *testing.T) {
	_, err := Derive("", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = Derive("alice", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPartition(t *testing.T) {
	m, err := Derive("bob", "hunter2")
	require.NoError(t, err)
	var (
		all    = m.Bytes()
		joined []byte
		offset int
	)
	for _, p := range Layout {
		assert.Equal(t, offset, p.Offset, p.Name)
		offset += p.Size
	}
	assert.Equal(t, def.DerivedKeySize, offset)
	for _, b := range [][]byte{m.EditSeed(), m.ChannelSeed(), m.CurveSeed(),
		m.EdSeed(), m.BlockSeed(), m.Reserved()} {
		joined = append(joined, b...)
	}
	assert.True(t, bytes.Equal(all, joined))
	assert.Len(t, m.EditSeed(), 18)
	assert.Len(t, m.ChannelSeed(), 16)
	assert.Len(t, m.CurveSeed(), 32)
	assert.Len(t, m.EdSeed(), 32)
	assert.Len(t, m.BlockSeed(), 64)
	assert.Len(t, m.Reserved(), 30)
}

func TestWipe(t *testing.T) {
	m, err := Derive("carol", "pw")
	require.NoError(t, err)
	seed := m.BlockSeed()
	m.Wipe()
	assert.Equal(t, make([]byte, def.DerivedKeySize), m.Bytes())
	assert.NotEqual(t, make([]byte, 64), seed)
}

func TestDeriveContext(t *testing.T) {
	m, err := DeriveContext(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)
	n, err := Derive("alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, n.Bytes(), m.Bytes())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = DeriveContext(ctx, "alice", "correct-horse")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMaterial(t *testing.T) {
	if _, err := NewMaterial(make([]byte, 10)); err == nil {
		t.Error("should fail")
	}
	buf := make([]byte, def.DerivedKeySize)
	buf[0] = 1
	m, err := NewMaterial(buf)
	if err != nil {
		t.Fatal(err)
	}
	buf[0] = 2
	if m.EditSeed()[0] != 1 {
		t.Error("NewMaterial() should copy its argument")
	}
}
