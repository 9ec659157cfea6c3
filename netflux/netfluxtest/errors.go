// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netfluxtest

import (
	"errors"
)

var errInvalid = errors.New("EINVAL")
