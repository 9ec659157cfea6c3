// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package padengine

import (
	"fmt"
	"os"

	"github.com/padcomm/padctl/block"
	"github.com/padcomm/padctl/cryptor"
	"github.com/padcomm/padctl/def"
	"github.com/padcomm/padctl/kdf"
	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/mailbox"
	"github.com/padcomm/padctl/session"
	"github.com/padcomm/padctl/userhash"
	"github.com/padcomm/padctl/util"
	"github.com/padcomm/padctl/util/times"
)

func (pe *PadEngine) credentials() (string, string, error) {
	if pe.username == "" {
		return "", "", log.Error("option --username is mandatory")
	}
	password, err := pe.readPassword()
	if err != nil {
		return "", "", err
	}
	return pe.username, string(password), nil
}

func (pe *PadEngine) readPasswordFd() ([]byte, error) {
	fp := os.NewFile(uintptr(pe.passfd), "passphrase-fd")
	if fp == nil {
		return nil, log.Errorf("padengine: invalid passphrase-fd %d", pe.passfd)
	}
	return util.Readline(fp)
}

func (pe *PadEngine) derive() error {
	username, password, err := pe.credentials()
	if err != nil {
		return err
	}
	m, err := kdf.DeriveContext(pe.ctx, username, password)
	if err != nil {
		return err
	}
	defer m.Wipe()
	keys, err := block.NewKeys(m.BlockSeed())
	if err != nil {
		return err
	}
	channel := m.ChannelSeed()
	edit, err := cryptor.NewEditKeysV1(m.EditSeed())
	if err != nil {
		return err
	}
	fmt.Fprintf(pe.out, "block:    %s\n", keys.URL(def.BaseURL))
	fmt.Fprintf(pe.out, "channel:  %s\n", userhash.ChannelHex(channel))
	fmt.Fprintf(pe.out, "userhash: %s\n", userhash.FormatV1(channel, edit.EditKeyStr))
	return nil
}

// withSession logs in, runs f and logs out again.
func (pe *PadEngine) withSession(f func(m *session.Manager) error) error {
	username, password, err := pe.credentials()
	if err != nil {
		return err
	}
	m, err := session.New(session.Config{
		BaseURL:      def.BaseURL,
		WebSocketURL: def.WebSocketURL,
	})
	if err != nil {
		return err
	}
	if _, err := m.Login(pe.ctx, username, password); err != nil {
		return err
	}
	defer func() {
		if err := m.Logout(); err != nil {
			log.Warn(err)
		}
	}()
	return f(m)
}

func (pe *PadEngine) login() error {
	return pe.withSession(func(m *session.Manager) error {
		res, err := m.Identity()
		if err != nil {
			return err
		}
		fmt.Fprintf(pe.out, "username:      %s\n", res.Username)
		fmt.Fprintf(pe.out, "display name:  %s\n", res.DisplayName)
		fmt.Fprintf(pe.out, "ed public:     %s\n", res.Identity.EdPublic)
		fmt.Fprintf(pe.out, "curve public:  %s\n", res.Identity.CurvePublic)
		fmt.Fprintf(pe.out, "legacy:        %t\n", res.Legacy)
		if res.BlockHash != "" {
			fmt.Fprintf(pe.out, "block:         %s\n", res.BlockHash)
		}
		return nil
	})
}

func (pe *PadEngine) contacts() error {
	return pe.withSession(func(m *session.Manager) error {
		list, err := m.Contacts()
		if err != nil {
			return err
		}
		for _, c := range list {
			fmt.Fprintln(pe.out, c.String())
		}
		return nil
	})
}

func (pe *PadEngine) send(contact, text string) error {
	return pe.withSession(func(m *session.Manager) error {
		out, err := m.SendMessage(pe.ctx, contact, text)
		if err != nil {
			return err
		}
		state, err := out.Wait(pe.ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(pe.out, "%s\n", state)
		return nil
	})
}

func (pe *PadEngine) messages(contact string) error {
	return pe.withSession(func(m *session.Manager) error {
		msgs, err := m.GetMessages(pe.ctx, contact)
		if err != nil {
			return err
		}
		res, err := m.Identity()
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			from := "them"
			if msg.Author == res.Identity.CurvePublic {
				from = "me"
			}
			fmt.Fprintf(pe.out, "%s %-4s %s\n",
				times.FromMillis(msg.Time).Format("2006-01-02 15:04:05"), from, msg.Content)
		}
		return nil
	})
}

func (pe *PadEngine) requests() error {
	return pe.withSession(func(m *session.Manager) error {
		reqs, err := m.PendingRequests(pe.ctx)
		if err != nil {
			return err
		}
		for _, r := range reqs {
			fmt.Fprintf(pe.out, "%s <%s>\n", r.DisplayName, r.CurvePublic)
		}
		return nil
	})
}

func (pe *PadEngine) friendRequest(curvePublic, notifications, displayName string) error {
	return pe.withSession(func(m *session.Manager) error {
		return m.SendFriendRequest(pe.ctx, mailbox.Recipient{
			CurvePublic:   curvePublic,
			Notifications: notifications,
			DisplayName:   displayName,
		})
	})
}

func (pe *PadEngine) accept(id string) error {
	return pe.withSession(func(m *session.Manager) error {
		c, err := m.AcceptFriendRequest(pe.ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(pe.out, c.String())
		return nil
	})
}

func (pe *PadEngine) decline(id string) error {
	return pe.withSession(func(m *session.Manager) error {
		return m.DeclineFriendRequest(pe.ctx, id)
	})
}

func (pe *PadEngine) sync() error {
	return pe.withSession(func(m *session.Manager) error {
		added, err := m.SyncFriends(pe.ctx)
		if err != nil {
			return err
		}
		for _, c := range added {
			fmt.Fprintln(pe.out, c.String())
		}
		return nil
	})
}
