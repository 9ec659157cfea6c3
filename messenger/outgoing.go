// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package messenger

import (
	"context"
	"sync"
)

// State is the delivery state of an outgoing message.
type State int

const (
	// Pending messages were sent and wait for the acknowledgment.
	Pending State = iota
	// Acknowledged messages were accepted by the relay.
	Acknowledged
	// TimedOut messages were not acknowledged in time and were possibly
	// delivered.
	TimedOut
	// Failed messages could not be sent.
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Acknowledged:
		return "acknowledged"
	case TimedOut:
		return "timed out"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outgoing tracks a sent message.
type Outgoing struct {
	Message Message

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

func newOutgoing(m Message) *Outgoing {
	return &Outgoing{Message: m, done: make(chan struct{})}
}

func (o *Outgoing) resolve(state State, err error) {
	o.mu.Lock()
	o.state = state
	o.err = err
	o.mu.Unlock()
	close(o.done)
}

// State returns the current state.
func (o *Outgoing) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err returns the error of a failed or timed out message.
func (o *Outgoing) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Done is closed when the message left the Pending state.
func (o *Outgoing) Done() <-chan struct{} {
	return o.done
}

// Wait waits until the message left the Pending state and returns the
// final state.
func (o *Outgoing) Wait(ctx context.Context) (State, error) {
	select {
	case <-o.done:
		return o.State(), nil
	case <-ctx.Done():
		return Pending, ctx.Err()
	}
}
