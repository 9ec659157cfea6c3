// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package base64

import (
	"bytes"
	"io/ioutil"
	"testing"
)

const (
	data = "5WBIS6whUU/Zuo9o0hqawcHAv8SZcxd9NzA79tEUcCI="
	safe = "5WBIS6whUU-Zuo9o0hqawcHAv8SZcxd9NzA79tEUcCI="
)

func TestBase64Function(t *testing.T) {
	dec, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if data != Encode(dec) {
		t.Fatal("encodings differ")
	}
}

func TestBase64Coder(t *testing.T) {
	r := NewDecoder(bytes.NewBufferString(data))
	dec, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	encoder := NewEncoder(&buf)
	if _, err := encoder.Write(dec); err != nil {
		t.Fatal(err)
	}
	encoder.Close()
	if data != buf.String() {
		t.Fatal("encodings differ")
	}
}

func TestBase64Safe(t *testing.T) {
	dec, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if EncodeSafe(dec) != safe {
		t.Fatalf("EncodeSafe() = %s != %s", EncodeSafe(dec), safe)
	}
	for _, s := range []string{safe, data, "5WBIS6whUU-Zuo9o0hqawcHAv8SZcxd9NzA79tEUcCI"} {
		d, err := DecodeSafe(s)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(d, dec) {
			t.Errorf("DecodeSafe(%s) differs", s)
		}
	}
	if _, err := DecodeSafe("!!!!"); err == nil {
		t.Error("should fail")
	}
}

func TestHex(t *testing.T) {
	h, err := ToHex("AAECAwQFBgcICQoLDA0ODw==")
	if err != nil {
		t.Fatal(err)
	}
	if h != "000102030405060708090a0b0c0d0e0f" {
		t.Errorf("ToHex() = %s", h)
	}
	b, err := FromHex(h)
	if err != nil {
		t.Fatal(err)
	}
	if b != "AAECAwQFBgcICQoLDA0ODw==" {
		t.Errorf("FromHex() = %s", b)
	}
	if _, err := FromHex("xyz"); err == nil {
		t.Error("should fail")
	}
}
