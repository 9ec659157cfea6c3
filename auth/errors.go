// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/padcomm/padctl/netflux"
)

var (
	// ErrAlreadyAuthenticated is returned by Login if the machine is Ready.
	ErrAlreadyAuthenticated = errors.New("auth: already authenticated")
	// ErrInProgress is returned by Login if a login is running.
	ErrInProgress = errors.New("auth: login in progress")
	// ErrNoIdentity is the cause of EmptyOrInvalidDrive failures.
	ErrNoIdentity = errors.New("auth: drive has neither signing nor encryption key")
)

// Kind is the kind of a login failure.
type Kind int

// Failure kinds.
const (
	KeyDerivation Kind = iota + 1
	UnrecognizedUserHash
	DriveConnection
	EmptyOrInvalidDrive
)

func (k Kind) String() string {
	switch k {
	case KeyDerivation:
		return "KeyDerivationError"
	case UnrecognizedUserHash:
		return "UnrecognizedUserHash"
	case DriveConnection:
		return "DriveConnectionError"
	case EmptyOrInvalidDrive:
		return "EmptyOrInvalidDrive"
	}
	return "Unknown"
}

// Error is a login failure.
type Error struct {
	// State is the state the failure occurred in.
	State State
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s in %s: %s", e.Kind, e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the login might succeed, which is the
// case for drive connection failures caused by the network.
func (e *Error) Temporary() bool {
	if e.Kind != DriveConnection {
		return false
	}
	var ne net.Error
	return errors.Is(e.Err, netflux.ErrClosed) ||
		errors.Is(e.Err, netflux.ErrJoinTimeout) ||
		errors.Is(e.Err, netflux.ErrNoHistoryKeeper) ||
		errors.Is(e.Err, context.DeadlineExceeded) ||
		errors.As(e.Err, &ne)
}
