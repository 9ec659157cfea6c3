// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package contacts implements the in-memory contact book of a session.
package contacts

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/padcomm/padctl/drive"
	"github.com/padcomm/padctl/log"
)

var (
	// ErrNotFound is returned if no contact matches.
	ErrNotFound = errors.New("contacts: contact not found")
	// ErrAmbiguous is returned if a display name matches several contacts.
	ErrAmbiguous = errors.New("contacts: display name is ambiguous")
)

// Contact is a friend.
type Contact struct {
	CurvePublic string
	EdPublic    string
	DisplayName string
	// Channel is the hex encoded channel of the conversation.
	Channel string
	// Notifications is the channel of the mailbox of the contact.
	Notifications string
}

// String returns the contact as "name <key>", or the key alone.
func (c *Contact) String() string {
	if c.DisplayName == "" {
		return c.CurvePublic
	}
	return c.DisplayName + " <" + c.CurvePublic + ">"
}

// Book is a contact book keyed by curve public key. It is safe for
// concurrent use.
type Book struct {
	mu       sync.Mutex
	contacts map[string]Contact
}

// NewBook returns a book seeded with the friends stored in a drive.
func NewBook(friends []drive.Friend) *Book {
	b := &Book{contacts: make(map[string]Contact)}
	for _, f := range friends {
		if f.CurvePublic == "" {
			continue
		}
		b.contacts[f.CurvePublic] = Contact{
			CurvePublic:   f.CurvePublic,
			EdPublic:      f.EdPublic,
			DisplayName:   f.DisplayName,
			Channel:       f.Channel,
			Notifications: f.Notifications,
		}
	}
	return b
}

// AddContact adds or updates a contact.
func (b *Book) AddContact(c Contact) error {
	if c.CurvePublic == "" {
		return log.Error("contacts: contact without curve public key")
	}
	b.mu.Lock()
	b.contacts[c.CurvePublic] = c
	b.mu.Unlock()
	return nil
}

// GetContact returns the contact with the given curve public key.
func (b *Book) GetContact(curvePublic string) (Contact, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contacts[curvePublic]
	return c, ok
}

// RemoveContact removes the contact with the given curve public key.
func (b *Book) RemoveContact(curvePublic string) {
	b.mu.Lock()
	delete(b.contacts, curvePublic)
	b.mu.Unlock()
}

// Find returns the contact whose curve public key is id or whose display
// name equals id, ignoring case.
func (b *Book) Find(id string) (Contact, error) {
	if c, ok := b.GetContact(id); ok {
		return c, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var (
		found Contact
		n     int
	)
	for _, c := range b.contacts {
		if strings.EqualFold(c.DisplayName, id) {
			found = c
			n++
		}
	}
	switch n {
	case 0:
		return Contact{}, ErrNotFound
	case 1:
		return found, nil
	}
	return Contact{}, log.Error(ErrAmbiguous)
}

// GetContacts returns all contacts sorted by display name, then key.
func (b *Book) GetContacts() []Contact {
	b.mu.Lock()
	contacts := make([]Contact, 0, len(b.contacts))
	for _, c := range b.contacts {
		contacts = append(contacts, c)
	}
	b.mu.Unlock()
	sort.Slice(contacts, func(i, j int) bool {
		ni := strings.ToLower(contacts[i].DisplayName)
		nj := strings.ToLower(contacts[j].DisplayName)
		if ni != nj {
			return ni < nj
		}
		return contacts[i].CurvePublic < contacts[j].CurvePublic
	})
	return contacts
}

// Len returns the number of contacts.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.contacts)
}
