// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cipher

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestSHA512(t *testing.T) {
	if hex.EncodeToString(SHA512([]byte(""))) != "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e" {
		t.Error("SHA512(\"\") != \"cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e\")")
	}
	if hex.EncodeToString(SHA512([]byte("abc"))) != "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f" {
		t.Error("SHA512(\"abc\") != \"ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f\")")
	}
	if !bytes.Equal(SHA512([]byte("a"), []byte("bc")), SHA512([]byte("abc"))) {
		t.Error("SHA512(\"a\", \"bc\") != SHA512(\"abc\")")
	}
}
