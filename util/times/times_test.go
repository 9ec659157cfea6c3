// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package times

import (
	"testing"
	"time"
)

func TestNowMillis(t *testing.T) {
	before := time.Now().UTC()
	ms := NowMillis()
	if d := FromMillis(ms).Sub(before); d < -time.Millisecond || d > time.Second {
		t.Errorf("NowMillis() off by %s", d)
	}
	if ms/1000 > Now() {
		t.Error("NowMillis() ahead of Now()")
	}
}

func TestFromMillis(t *testing.T) {
	tm := FromMillis(1500000000123)
	if tm.Unix() != 1500000000 || tm.Nanosecond() != 123000000 {
		t.Errorf("FromMillis() = %s", tm)
	}
}
