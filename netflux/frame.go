// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netflux

import (
	"encoding/json"
)

// Frame vocabulary.
const (
	CmdIdent = "IDENT"
	CmdJoin  = "JOIN"
	CmdJack  = "JACK"
	CmdMsg   = "MSG"
	CmdLeave = "LEAVE"
	CmdAck   = "ACK"
	CmdError = "ERROR"
)

// Frame is a protocol frame, a JSON array. Element 0 is the sequence number
// of the request the frame belongs to, 0 or null for unsolicited frames.
type Frame []json.RawMessage

// ParseFrame parses a frame.
func ParseFrame(b []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if len(f) == 0 {
		return nil, ErrFrame
	}
	return f, nil
}

// EncodeFrame encodes the given elements as a frame.
func EncodeFrame(elems ...interface{}) ([]byte, error) {
	return json.Marshal(elems)
}

// Seq returns the sequence number of the frame, 0 if there is none.
func (f Frame) Seq() int64 {
	if len(f) == 0 {
		return 0
	}
	var seq int64
	if err := json.Unmarshal(f[0], &seq); err != nil {
		return 0
	}
	return seq
}

// String returns element i as a string.
func (f Frame) String(i int) (string, bool) {
	if i < 0 || i >= len(f) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(f[i], &s); err != nil {
		return "", false
	}
	return s, true
}

// Is reports whether element i is the string s.
func (f Frame) Is(i int, s string) bool {
	v, ok := f.String(i)
	return ok && v == s
}

// Raw returns element i or nil.
func (f Frame) Raw(i int) json.RawMessage {
	if i < 0 || i >= len(f) {
		return nil
	}
	return f[i]
}
