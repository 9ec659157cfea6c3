// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package def defines all default values used in padctl.
package def

import (
	"time"

	"github.com/padcomm/padctl/config"
	"github.com/padcomm/padctl/log"
)

// Key derivation parameters. Changing any of them derives different keys for
// every existing account.
const (
	// ScryptN is the scrypt CPU/memory cost parameter (log2(N) = 8).
	ScryptN = 256
	// ScryptR is the scrypt block size parameter.
	ScryptR = 1024
	// ScryptP is the scrypt parallelization parameter.
	ScryptP = 1
	// DerivedKeySize is the length of the scrypt output.
	DerivedKeySize = 192
)

// Partition of the derived key material, in order.
const (
	EditSeedSize    = 18
	ChannelSeedSize = 16
	CurveSeedSize   = 32
	EdSeedSize      = 32
	BlockSeedSize   = 64
	ReservedSize    = DerivedKeySize - EditSeedSize - ChannelSeedSize -
		CurveSeedSize - EdSeedSize - BlockSeedSize
)

const (
	// SigningKeySalt is prepended to the Curve25519 shared secret before the
	// per-peer signing and encryption keys are hashed from it.
	SigningKeySalt = "CryptPad.signingKeyGenerationSalt"

	// MaxBlockSize is the maximum size of a block fetched over HTTP.
	MaxBlockSize = 1048576

	// HistoryRequestDelay is the delay between the identification of the
	// history keeper and the history request.
	HistoryRequestDelay = 200 * time.Millisecond

	// ReconnectMin is the initial delay between reconnection attempts.
	ReconnectMin = 100 * time.Millisecond

	// ReconnectMax is the maximum delay between reconnection attempts and
	// the maximum accumulated delay of one reconnection.
	ReconnectMax = 5 * time.Second
)

// Protocol timeouts. They can be changed with Init.
var (
	// HistoryTimeout is the idle timeout of a history replay.
	HistoryTimeout = 5 * time.Second
	// SendAckTimeout is the time to wait for the acknowledgment of a
	// broadcast before it is reported as possibly delivered.
	SendAckTimeout = 2 * time.Second
	// RPCTimeout is the time to wait for an RPC response.
	RPCTimeout = 30 * time.Second
	// JoinTimeout is the time to wait for the JACK of a JOIN.
	JoinTimeout = 10 * time.Second
	// LeaveGrace is the time between sending LEAVE and closing the socket.
	LeaveGrace = 100 * time.Millisecond
	// HTTPTimeout is the timeout of a block fetch.
	HTTPTimeout = 30 * time.Second
)

// BaseURL is the HTTP origin of the deployment.
var BaseURL string

// WebSocketURL is the origin of the channel relay.
var WebSocketURL string

// HistoryKeeper overrides the history keeper heuristic, if not empty.
var HistoryKeeper string

func millis(ms int, d *time.Duration) {
	if ms > 0 {
		*d = time.Duration(ms) * time.Millisecond
	}
}

// Init initializes padctl with the configuration from cfg.
// The configuration must have been validated before.
func Init(cfg *config.Config) error {
	log.Info("initialize padctl")
	if cfg.Endpoints.BaseURL == "" {
		return log.Error(config.ErrNoBaseURL)
	}
	if cfg.Endpoints.WebSocketURL == "" {
		return log.Error(config.ErrNoWebSocketURL)
	}
	BaseURL = cfg.Endpoints.BaseURL
	WebSocketURL = cfg.Endpoints.WebSocketURL
	HistoryKeeper = cfg.Relay.HistoryKeeper
	millis(cfg.Timeouts.History, &HistoryTimeout)
	millis(cfg.Timeouts.SendAck, &SendAckTimeout)
	millis(cfg.Timeouts.RPC, &RPCTimeout)
	millis(cfg.Timeouts.Join, &JoinTimeout)
	millis(cfg.Timeouts.LeaveGrace, &LeaveGrace)
	millis(cfg.Timeouts.HTTP, &HTTPTimeout)
	return nil
}
