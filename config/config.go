// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements the configuration file of padctl.
package config

import (
	"errors"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/padcomm/padctl/log"
)

const defaultLogLevel = "info"

var (
	// ErrNoBaseURL is returned if the configuration lacks the HTTP origin.
	ErrNoBaseURL = errors.New("config: Endpoints.BaseURL is undefined")
	// ErrNoWebSocketURL is returned if the configuration lacks the WebSocket
	// origin.
	ErrNoWebSocketURL = errors.New("config: Endpoints.WebSocketURL is undefined")
)

// Endpoints defines the two origins of a deployment. Both are mandatory,
// there are no defaults.
type Endpoints struct {
	// BaseURL is the HTTP origin blocks are fetched from.
	BaseURL string
	// WebSocketURL is the origin of the channel relay.
	WebSocketURL string
}

func (e *Endpoints) validate() error {
	if e.BaseURL == "" {
		return log.Error(ErrNoBaseURL)
	}
	if e.WebSocketURL == "" {
		return log.Error(ErrNoWebSocketURL)
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return log.Error(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return log.Errorf("config: Endpoints.BaseURL has invalid scheme '%s'", u.Scheme)
	}
	e.BaseURL = strings.TrimRight(e.BaseURL, "/")
	w, err := url.Parse(e.WebSocketURL)
	if err != nil {
		return log.Error(err)
	}
	if w.Scheme != "ws" && w.Scheme != "wss" {
		return log.Errorf("config: Endpoints.WebSocketURL has invalid scheme '%s'", w.Scheme)
	}
	return nil
}

// Timeouts are given in milliseconds. Zero values keep the protocol defaults.
type Timeouts struct {
	History    int
	SendAck    int
	RPC        int
	Join       int
	LeaveGrace int
	HTTP       int
}

func (t *Timeouts) validate() error {
	for name, v := range map[string]int{
		"History":    t.History,
		"SendAck":    t.SendAck,
		"RPC":        t.RPC,
		"Join":       t.Join,
		"LeaveGrace": t.LeaveGrace,
		"HTTP":       t.HTTP,
	} {
		if v < 0 {
			return log.Errorf("config: Timeouts.%s = %d is negative", name, v)
		}
	}
	return nil
}

// Relay configures how the relay peer of a channel is chosen.
type Relay struct {
	// HistoryKeeper overrides the first-peer heuristic, if set.
	HistoryKeeper string
}

// Config is the top level padctl configuration.
type Config struct {
	Endpoints Endpoints
	Logging   log.Options
	Timeouts  Timeouts
	Relay     Relay
}

// FixupAndValidate applies defaults to config entries and validates the
// configuration sections.
func (c *Config) FixupAndValidate() error {
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if !log.ValidLevel(c.Logging.Level) {
		return log.Errorf("config: Logging.Level '%s' is invalid", c.Logging.Level)
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if err := c.Endpoints.validate(); err != nil {
		return err
	}
	return c.Timeouts.validate()
}

// Parse parses the provided buffer b as a config file body and returns the
// Config. The result is not validated, so that command-line flags can still
// fill in missing values before FixupAndValidate is called.
func Parse(b []byte) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, log.Error(err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, log.Errorf("config: unknown key '%s'", undecoded[0])
	}
	return cfg, nil
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses, and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, log.Error(err)
	}
	return Load(b)
}

// ParseFile reads and parses the provided file without validating it.
// A missing file yields an empty Config.
func ParseFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if errors.Is(err, os.ErrNotExist) {
		return new(Config), nil
	} else if err != nil {
		return nil, log.Error(err)
	}
	return Parse(b)
}
