// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package auth implements the login of a user.

Login is a pipeline of states:

	Start -> DerivingKeys -> AttemptingBlock -> DecryptingBlock ->
	  ParsingUserHash -> ConnectingRealDrive -> Ready

A missing or unreadable block, or a block without user hash, switches to
the legacy path:

	AttemptingLegacy -> ConnectingLegacyDrive -> Ready

where the drive is found with keys derived from the credentials alone. Any
other failure ends in Failed, reported as an *Error carrying the state and
kind of the failure.
*/
package auth
