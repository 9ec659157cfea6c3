// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package messenger

import (
	"encoding/json"
	"errors"
	"sync"
)

// TypeMsg is the type of a text message.
const TypeMsg = "MSG"

// SigSize is the length of the ciphertext prefix kept as message signature.
const SigSize = 64

// ErrMessage is returned for plaintexts which are not a message.
var ErrMessage = errors.New("messenger: malformed message")

// Message is a direct message.
type Message struct {
	Type    string
	Author  string // curve public key
	Time    int64  // milliseconds
	Content string
	// Sig is the start of the ciphertext the message was received as.
	Sig string
}

func (m *Message) key() msgKey {
	return msgKey{m.Author, m.Time}
}

func (m *Message) encode() (string, error) {
	b, err := json.Marshal([]interface{}{m.Type, m.Author, m.Time, m.Content})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMessage(plain string) (*Message, error) {
	var (
		elems []json.RawMessage
		m     Message
		ts    float64
	)
	if err := json.Unmarshal([]byte(plain), &elems); err != nil || len(elems) < 4 {
		return nil, ErrMessage
	}
	if json.Unmarshal(elems[0], &m.Type) != nil ||
		json.Unmarshal(elems[1], &m.Author) != nil ||
		json.Unmarshal(elems[2], &ts) != nil ||
		json.Unmarshal(elems[3], &m.Content) != nil {
		return nil, ErrMessage
	}
	m.Time = int64(ts)
	return &m, nil
}

func sig(cipherText string) string {
	if len(cipherText) > SigSize {
		return cipherText[:SigSize]
	}
	return cipherText
}

type msgKey struct {
	author string
	time   int64
}

// Log is an ordered message log without duplicates. It is safe for
// concurrent use.
type Log struct {
	mu   sync.Mutex
	msgs []Message
	seen map[msgKey]bool
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{seen: make(map[msgKey]bool)}
}

// Add adds m unless a message with the same author and timestamp is already
// in the log. Messages are kept in timestamp order, messages with equal
// timestamps in the order they were added.
func (l *Log) Add(m Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[m.key()] {
		return false
	}
	l.seen[m.key()] = true
	i := len(l.msgs)
	for i > 0 && l.msgs[i-1].Time > m.Time {
		i--
	}
	l.msgs = append(l.msgs, Message{})
	copy(l.msgs[i+1:], l.msgs[i:])
	l.msgs[i] = m
	return true
}

// Messages returns a copy of the log.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.msgs...)
}

// Len returns the number of messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}
