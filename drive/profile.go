// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drive

// Keys of the drive state.
const (
	KeyEdPublic     = "edPublic"
	KeyEdPrivate    = "edPrivate"
	KeyCurvePublic  = "curvePublic"
	KeyCurvePrivate = "curvePrivate"
	KeyDisplayName  = "cryptpad.username"
	KeyFriends      = "friends"
	KeyMailboxes    = "mailboxes"
)

// Friend is a contact stored in the drive.
type Friend struct {
	CurvePublic   string
	EdPublic      string
	DisplayName   string
	Channel       string
	Notifications string
}

// Profile is the identity and social data kept in the drive.
type Profile struct {
	EdPublic     string
	EdPrivate    string
	CurvePublic  string
	CurvePrivate string
	DisplayName  string
	// Notifications is the channel of the notifications mailbox.
	Notifications string
	Friends       []Friend
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func obj(m map[string]interface{}, key string) map[string]interface{} {
	o, _ := m[key].(map[string]interface{})
	return o
}

// ProfileFromState extracts the profile from a drive state.
func ProfileFromState(state map[string]interface{}) *Profile {
	p := &Profile{
		EdPublic:     str(state, KeyEdPublic),
		EdPrivate:    str(state, KeyEdPrivate),
		CurvePublic:  str(state, KeyCurvePublic),
		CurvePrivate: str(state, KeyCurvePrivate),
		DisplayName:  str(state, KeyDisplayName),
	}
	if mb := obj(obj(state, KeyMailboxes), "notifications"); mb != nil {
		p.Notifications = str(mb, "channel")
	}
	for key, v := range obj(state, KeyFriends) {
		f, ok := v.(map[string]interface{})
		if !ok || key == "me" {
			continue
		}
		friend := Friend{
			CurvePublic:   str(f, "curvePublic"),
			EdPublic:      str(f, "edPublic"),
			DisplayName:   str(f, "displayName"),
			Channel:       str(f, "channel"),
			Notifications: str(f, "notifications"),
		}
		if friend.CurvePublic == "" {
			friend.CurvePublic = key
		}
		p.Friends = append(p.Friends, friend)
	}
	return p
}

// HasIdentity reports whether the profile carries a signing or an
// encryption public key.
func (p *Profile) HasIdentity() bool {
	return p.EdPublic != "" || p.CurvePublic != ""
}
