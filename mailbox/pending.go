// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mailbox

import (
	"sort"
	"sync"

	"github.com/padcomm/padctl/util/times"
)

// Pending is a sent friend request without answer.
type Pending struct {
	Recipient
	// Time is when the request was sent, in milliseconds.
	Time int64
}

// PendingStore keeps the pending friend requests. It is safe for concurrent
// use.
type PendingStore struct {
	mu      sync.Mutex
	pending map[string]Pending
}

// NewPendingStore returns an empty store.
func NewPendingStore() *PendingStore {
	return &PendingStore{pending: make(map[string]Pending)}
}

// Add records a request to r. It fails with ErrAlreadyPending if a request
// to r is already recorded.
func (s *PendingStore) Add(r Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[r.CurvePublic]; ok {
		return ErrAlreadyPending
	}
	s.pending[r.CurvePublic] = Pending{Recipient: r, Time: times.NowMillis()}
	return nil
}

// Get returns the pending request to curvePublic.
func (s *PendingStore) Get(curvePublic string) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[curvePublic]
	return p, ok
}

// Remove removes the pending request to curvePublic.
func (s *PendingStore) Remove(curvePublic string) {
	s.mu.Lock()
	delete(s.pending, curvePublic)
	s.mu.Unlock()
}

// List returns the pending requests, oldest first.
func (s *PendingStore) List() []Pending {
	s.mu.Lock()
	list := make([]Pending, 0, len(s.pending))
	for _, p := range s.pending {
		list = append(list, p)
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].Time != list[j].Time {
			return list[i].Time < list[j].Time
		}
		return list[i].CurvePublic < list[j].CurvePublic
	})
	return list
}
