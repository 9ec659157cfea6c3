// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drive

import (
	"encoding/json"
	"sync"

	"github.com/padcomm/padctl/log"
)

// Engine is the replicated-state engine a drive feeds its patches into.
// Merging concurrent edits is the business of the engine.
type Engine interface {
	// ApplyRemote applies a patch received on the channel.
	ApplyRemote(patch string) error
	// State returns a copy of the current state.
	State() map[string]interface{}
}

// SnapshotEngine is an Engine which treats every patch that is a JSON object
// as a checkpoint of the complete state. Other patches are ignored.
type SnapshotEngine struct {
	mu      sync.Mutex
	state   map[string]interface{}
	applied int
}

// NewSnapshotEngine returns an empty SnapshotEngine.
func NewSnapshotEngine() *SnapshotEngine {
	return &SnapshotEngine{state: make(map[string]interface{})}
}

// ApplyRemote implements Engine.
func (e *SnapshotEngine) ApplyRemote(patch string) error {
	var state map[string]interface{}
	if err := json.Unmarshal([]byte(patch), &state); err != nil || state == nil {
		log.Tracef("drive: ignoring non-snapshot patch")
		return nil
	}
	e.mu.Lock()
	e.state = state
	e.applied++
	e.mu.Unlock()
	return nil
}

// State implements Engine.
func (e *SnapshotEngine) State() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := make(map[string]interface{}, len(e.state))
	for k, v := range e.state {
		state[k] = v
	}
	return state
}

// Applied returns the number of snapshots applied.
func (e *SnapshotEngine) Applied() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applied
}
