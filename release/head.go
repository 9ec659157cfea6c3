// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package release

// Commit and Date describe the source revision of the build. They are set
// with -ldflags "-X github.com/padcomm/padctl/release.Commit=...".
var (
	Commit = "unknown"
	Date   = "unknown"
)
