// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cipher

import (
	"testing"
)

func TestSecretbox(t *testing.T) {
	key, err := Key32(make([]byte, 32))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Key32(make([]byte, 16)); err == nil {
		t.Error("should fail")
	}
	if _, _, err := SecretboxSealRandom(RandFail, []byte("x"), key); err == nil {
		t.Error("should fail")
	}
	nonce, box, err := SecretboxSealRandom(RandReader, []byte("secret"), key)
	if err != nil {
		t.Fatal(err)
	}
	if len(box) != len("secret")+SecretboxOverhead {
		t.Error("wrong box length")
	}
	msg, err := SecretboxOpen(box, nonce, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != "secret" {
		t.Error("messages differ")
	}
	other := *key
	other[0] = 1
	if _, err := SecretboxOpen(box, nonce, &other); err != ErrDecrypt {
		t.Error("should fail with ErrDecrypt")
	}
}
