// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netflux

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned for operations on a closed connection.
	ErrClosed = errors.New("netflux: connection closed")
	// ErrFrame is returned for frames which are not a non-empty JSON array.
	ErrFrame = errors.New("netflux: malformed frame")
	// ErrJoinTimeout is returned if a JOIN was not acknowledged in time.
	ErrJoinTimeout = errors.New("netflux: join timed out")
	// ErrAckTimeout is returned if a message was not acknowledged in time.
	// The message was possibly delivered.
	ErrAckTimeout = errors.New("netflux: message not acknowledged, possibly delivered")
	// ErrNoHistoryKeeper is returned if no peer showed up on a channel.
	ErrNoHistoryKeeper = errors.New("netflux: no history keeper on channel")
	// ErrLeft is returned for operations on a channel which was left.
	ErrLeft = errors.New("netflux: channel left")
)

// ServerError is an ERROR frame sent in reply to a request.
type ServerError struct {
	Code string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("netflux: server error: %s", e.Code)
}

// HistoryError is an error reported by the history keeper.
type HistoryError struct {
	Channel string
	Code    string
}

func (e *HistoryError) Error() string {
	return fmt.Sprintf("netflux: history of %s: %s", e.Channel, e.Code)
}
