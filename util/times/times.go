// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package times contains time utility functions for padctl.
package times

import (
	"time"
)

// Now returns the current time in UTC as Unix time,
// the number of seconds elapsed since January 1, 1970 UTC.
func Now() int64 {
	return time.Now().UTC().Unix()
}

// NowMillis returns the current time in UTC as Unix time,
// the number of milliseconds elapsed since January 1, 1970 UTC.
// Message timestamps on the wire are in milliseconds.
func NowMillis() int64 {
	return time.Now().UTC().UnixNano() / int64(time.Millisecond)
}

// FromMillis converts a millisecond Unix timestamp to a time.Time in UTC.
func FromMillis(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}
