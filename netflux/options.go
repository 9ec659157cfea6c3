// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netflux

import (
	"time"

	"github.com/padcomm/padctl/def"
)

// Options configure a connection.
type Options struct {
	// HistoryKeeper overrides the first-peer heuristic, if not empty.
	HistoryKeeper string
	// AckTimeout bounds the wait for the acknowledgment of a message.
	AckTimeout time.Duration
	// JoinTimeout bounds the wait for the JACK of a JOIN and for the first
	// peer of a channel.
	JoinTimeout time.Duration
	// HistoryTimeout is the idle timeout of a history replay.
	HistoryTimeout time.Duration
	// HistoryDelay is the delay before history is requested.
	HistoryDelay time.Duration
	// LeaveGrace is the delay between LEAVE and closing the socket.
	LeaveGrace time.Duration
}

// DefaultOptions returns the options set in package def.
func DefaultOptions() *Options {
	return &Options{
		HistoryKeeper:  def.HistoryKeeper,
		AckTimeout:     def.SendAckTimeout,
		JoinTimeout:    def.JoinTimeout,
		HistoryTimeout: def.HistoryTimeout,
		HistoryDelay:   def.HistoryRequestDelay,
		LeaveGrace:     def.LeaveGrace,
	}
}
