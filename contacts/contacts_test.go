// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package contacts

import (
	"testing"

	"github.com/padcomm/padctl/drive"
)

func TestBook(t *testing.T) {
	b := NewBook([]drive.Friend{
		{CurvePublic: "bobkey", DisplayName: "Bob", Channel: "01"},
		{CurvePublic: "carolkey", DisplayName: "carol", Channel: "02"},
		{DisplayName: "nokey"},
	})
	if b.Len() != 2 {
		t.Fatalf("b.Len() = %d != 2", b.Len())
	}
	c, err := b.Find("bob")
	if err != nil {
		t.Fatal(err)
	}
	if c.CurvePublic != "bobkey" {
		t.Error("c.CurvePublic != \"bobkey\"")
	}
	if c.String() != "Bob <bobkey>" {
		t.Errorf("c.String() = %s", c.String())
	}
	c, err = b.Find("carolkey")
	if err != nil {
		t.Fatal(err)
	}
	if c.DisplayName != "carol" {
		t.Error("c.DisplayName != \"carol\"")
	}
	if _, err := b.Find("eve"); err != ErrNotFound {
		t.Error("should fail")
	}
	if err := b.AddContact(Contact{CurvePublic: "bob2", DisplayName: "BOB"}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Find("Bob"); err != ErrAmbiguous {
		t.Error("should fail")
	}
	if err := b.AddContact(Contact{DisplayName: "x"}); err == nil {
		t.Error("should fail")
	}
	list := b.GetContacts()
	if len(list) != 3 {
		t.Fatalf("len(list) = %d != 3", len(list))
	}
	if list[0].CurvePublic != "bob2" || list[1].CurvePublic != "bobkey" || list[2].CurvePublic != "carolkey" {
		t.Errorf("unexpected order: %v", list)
	}
	b.RemoveContact("bob2")
	if _, ok := b.GetContact("bob2"); ok {
		t.Error("contact should be removed")
	}
	anon := Contact{CurvePublic: "k"}
	if anon.String() != "k" {
		t.Error("anon.String() != \"k\"")
	}
}
