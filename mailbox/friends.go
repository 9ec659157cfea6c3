// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mailbox

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/padcomm/padctl/cipher"
	"github.com/padcomm/padctl/contacts"
	"github.com/padcomm/padctl/log"
)

// ChannelSize is the size of the channel of a new conversation.
const ChannelSize = 16

// Friends implements the friend request flows.
type Friends struct {
	me      UserData
	book    *contacts.Book
	pending *PendingStore
	sender  *Sender
	reader  *Reader
}

// NewFriends returns the friend request flows of the user described by me.
// Accepted friends are added to book.
func NewFriends(me UserData, book *contacts.Book, pending *PendingStore, sender *Sender, reader *Reader) *Friends {
	return &Friends{
		me:      me,
		book:    book,
		pending: pending,
		sender:  sender,
		reader:  reader,
	}
}

// UserData returns the own user data. If includeChannel is set, it carries a
// random channel for a new conversation.
func (f *Friends) UserData(includeChannel bool) (UserData, error) {
	data := f.me
	data.Channel = ""
	if includeChannel {
		b, err := cipher.RandBytes(cipher.RandReader, ChannelSize)
		if err != nil {
			return UserData{}, err
		}
		data.Channel = hex.EncodeToString(b)
	}
	return data, nil
}

// Pending returns the pending requests.
func (f *Friends) Pending() []Pending {
	return f.pending.List()
}

// SendRequest sends a friend request to r. The request is recorded as
// pending; the record is removed again if sending fails.
func (f *Friends) SendRequest(ctx context.Context, r Recipient) error {
	if !r.valid() || r.CurvePublic == f.me.CurvePublic {
		return log.Error(ErrInvalidRecipient)
	}
	if _, ok := f.book.GetContact(r.CurvePublic); ok {
		return log.Error(ErrAlreadyFriends)
	}
	if err := f.pending.Add(r); err != nil {
		return log.Error(err)
	}
	data, err := f.UserData(false)
	if err != nil {
		f.pending.Remove(r.CurvePublic)
		return err
	}
	if err := f.sender.Send(ctx, FriendRequest, data, r); err != nil {
		f.pending.Remove(r.CurvePublic)
		return err
	}
	return nil
}

// Requests reads the own mailbox and returns the friend requests from users
// who are not friends yet.
func (f *Friends) Requests(ctx context.Context) ([]Request, error) {
	items, err := f.reader.Read(ctx, f.me.Notifications, f.me.EdPublic)
	if err != nil {
		return nil, err
	}
	var reqs []Request
	for _, req := range Requests(items) {
		if _, ok := f.book.GetContact(req.CurvePublic); ok {
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// findRequest rereads the mailbox for the request from the user whose curve
// key or display name is id.
func (f *Friends) findRequest(ctx context.Context, id string) (*Request, error) {
	reqs, err := f.Requests(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		if reqs[i].CurvePublic == id {
			return &reqs[i], nil
		}
	}
	for i := range reqs {
		if strings.EqualFold(reqs[i].DisplayName, id) {
			return &reqs[i], nil
		}
	}
	return nil, log.Error(ErrRequestNotFound)
}

func (req *Request) recipient() Recipient {
	return Recipient{
		CurvePublic:   req.CurvePublic,
		Notifications: req.Notifications,
		DisplayName:   req.DisplayName,
	}
}

// Accept accepts the friend request from the user whose curve key or display
// name is id. The new friend is added to the contact book with a fresh
// conversation channel; the contact is removed again if the acceptance
// cannot be sent.
func (f *Friends) Accept(ctx context.Context, id string) (contacts.Contact, error) {
	req, err := f.findRequest(ctx, id)
	if err != nil {
		return contacts.Contact{}, err
	}
	data, err := f.UserData(true)
	if err != nil {
		return contacts.Contact{}, err
	}
	c := contacts.Contact{
		CurvePublic:   req.CurvePublic,
		EdPublic:      req.EdPublic,
		DisplayName:   req.DisplayName,
		Channel:       data.Channel,
		Notifications: req.Notifications,
	}
	if err := f.book.AddContact(c); err != nil {
		return contacts.Contact{}, err
	}
	if err := f.sender.Send(ctx, AcceptFriendRequest, data, req.recipient()); err != nil {
		f.book.RemoveContact(c.CurvePublic)
		return contacts.Contact{}, err
	}
	return c, nil
}

// Decline declines the friend request from the user whose curve key or
// display name is id.
func (f *Friends) Decline(ctx context.Context, id string) error {
	req, err := f.findRequest(ctx, id)
	if err != nil {
		return err
	}
	data, err := f.UserData(false)
	if err != nil {
		return err
	}
	return f.sender.Send(ctx, DeclineFriendRequest, data, req.recipient())
}

// Sync reads the own mailbox for answers to pending requests. Accepted
// requests become contacts, declined ones are dropped. It returns the new
// contacts.
func (f *Friends) Sync(ctx context.Context) ([]contacts.Contact, error) {
	items, err := f.reader.Read(ctx, f.me.Notifications, f.me.EdPublic)
	if err != nil {
		return nil, err
	}
	var added []contacts.Contact
	for _, item := range items {
		if _, ok := f.pending.Get(item.Author); !ok {
			continue
		}
		switch item.Type {
		case AcceptFriendRequest:
			var data UserData
			if err := json.Unmarshal(item.Content, &data); err != nil || data.Channel == "" {
				log.Debugf("mailbox: dropping malformed acceptance")
				continue
			}
			c := contacts.Contact{
				CurvePublic:   item.Author,
				EdPublic:      data.EdPublic,
				DisplayName:   data.DisplayName,
				Channel:       data.Channel,
				Notifications: data.Notifications,
			}
			if err := f.book.AddContact(c); err != nil {
				return added, err
			}
			f.pending.Remove(item.Author)
			added = append(added, c)
		case DeclineFriendRequest:
			log.Infof("mailbox: friend request to %s declined", item.Author)
			f.pending.Remove(item.Author)
		}
	}
	return added, nil
}
