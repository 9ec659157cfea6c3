// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package userhash parses the user hash stored in a block, which locates the
// drive of an account and holds its edit key.
//
// Two versions exist:
//
//	/1/<mode>/<channel>/<key>/     channel given explicitly (base64)
//	/2/<type>/<mode>/<key>/        channel derived from the key
package userhash

import (
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/encode/base64"
	"github.com/padcomm/padctl/log"
)

// ErrUnrecognized is returned for user hashes in an unknown format.
var ErrUnrecognized = errors.New("userhash: unrecognized user hash")

var (
	v1 = regexp.MustCompile(`/1/(edit|view)/([^/]+)/([^/]+)/`)
	v2 = regexp.MustCompile(`/2/(\w+)/(edit|view)/([^/]+)/`)
)

// Hash is a parsed user hash.
type Hash struct {
	Raw     string
	Version int
	Type    string // only set for version 2
	Mode    string
	// Channel is the hex encoded drive channel.
	Channel string
	// Keys are the edit keys of the drive.
	Keys *cryptor.EditKeys
}

// Parse parses the user hash s. Version 2 takes precedence if s matches both
// patterns.
func Parse(s string) (*Hash, error) {
	if m := v2.FindStringSubmatch(s); m != nil {
		keys, err := cryptor.NewEditKeysV2(m[3], "")
		if err != nil {
			return nil, log.Error(ErrUnrecognized)
		}
		return &Hash{
			Raw:     s,
			Version: 2,
			Type:    m[1],
			Mode:    m[2],
			Channel: keys.ChannelHex(),
			Keys:    keys,
		}, nil
	}
	if m := v1.FindStringSubmatch(s); m != nil {
		channel, err := base64.ToHex(m[2])
		if err != nil || channel == "" {
			return nil, log.Error(ErrUnrecognized)
		}
		keys, err := cryptor.NewEditKeysV2(m[3], "")
		if err != nil {
			return nil, log.Error(ErrUnrecognized)
		}
		return &Hash{
			Raw:     s,
			Version: 1,
			Mode:    m[1],
			Channel: channel,
			Keys:    keys,
		}, nil
	}
	return nil, log.Error(ErrUnrecognized)
}

// EncodeChannel encodes a binary channel ID the way legacy user hashes
// carry it: base64 without padding, '+' and '/' replaced by '-'.
func EncodeChannel(channel []byte) string {
	s := strings.TrimRight(base64.Encode(channel), "=")
	return strings.NewReplacer("+", "-", "/", "-").Replace(s)
}

// FormatV1 returns the version 1 user hash of a legacy drive.
func FormatV1(channel []byte, editKeyStr string) string {
	return "/1/edit/" + EncodeChannel(channel) + "/" + editKeyStr + "/"
}

// ChannelHex returns the hex encoding of a binary channel ID.
func ChannelHex(channel []byte) string {
	return hex.EncodeToString(channel)
}
