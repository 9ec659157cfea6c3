// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package def

import (
	"testing"
	"time"

	"github.com/padcomm/padctl/config"
)

func TestPartition(t *testing.T) {
	if ReservedSize != 30 {
		t.Errorf("ReservedSize = %d != 30", ReservedSize)
	}
}

func TestInit(t *testing.T) {
	if err := Init(&config.Config{}); err == nil {
		t.Error("should fail")
	}
	history := HistoryTimeout
	defer func() { HistoryTimeout = history }()
	rpc := RPCTimeout
	defer func() { RPCTimeout = rpc }()
	cfg := &config.Config{
		Endpoints: config.Endpoints{
			BaseURL:      "http://localhost:3000",
			WebSocketURL: "ws://localhost:3000/cryptpad_websocket",
		},
		Timeouts: config.Timeouts{RPC: 1500},
	}
	if err := Init(cfg); err != nil {
		t.Fatal(err)
	}
	if RPCTimeout != 1500*time.Millisecond {
		t.Errorf("RPCTimeout = %s", RPCTimeout)
	}
	if HistoryTimeout != history {
		t.Errorf("HistoryTimeout changed to %s", HistoryTimeout)
	}
	if BaseURL != "http://localhost:3000" {
		t.Errorf("BaseURL = %s", BaseURL)
	}
}
