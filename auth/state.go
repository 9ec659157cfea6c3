// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

// State is a state of the login machine.
type State int

// Login states.
const (
	Start State = iota
	DerivingKeys
	AttemptingBlock
	DecryptingBlock
	ParsingUserHash
	ConnectingRealDrive
	AttemptingLegacy
	ConnectingLegacyDrive
	Ready
	Failed
)

var stateNames = []string{
	"Start",
	"DerivingKeys",
	"AttemptingBlock",
	"DecryptingBlock",
	"ParsingUserHash",
	"ConnectingRealDrive",
	"AttemptingLegacy",
	"ConnectingLegacyDrive",
	"Ready",
	"Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}
