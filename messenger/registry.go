// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package messenger

import (
	"context"
	"sync"

	"github.com/padcomm/padctl/log"
	"github.com/padcomm/padctl/netflux"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Registry holds the open sessions, at most one per channel.
type Registry struct {
	dial  netflux.Dialer
	me    Identity
	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns a registry which dials a connection per session.
func NewRegistry(dial netflux.Dialer, me Identity) *Registry {
	return &Registry{
		dial:     dial,
		me:       me,
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) lookup(chanID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chanID]
	if ok && s.isClosed() {
		delete(r.sessions, chanID)
		return nil
	}
	return s
}

// Open returns the session with c, opening it if necessary. Concurrent
// calls for the same channel share one open.
func (r *Registry) Open(ctx context.Context, c Contact) (*Session, error) {
	if c.Channel == "" || c.CurvePublic == "" {
		return nil, log.Error(ErrInvalidContact)
	}
	if s := r.lookup(c.Channel); s != nil {
		return s, nil
	}
	v, err, _ := r.group.Do(c.Channel, func() (interface{}, error) {
		if s := r.lookup(c.Channel); s != nil {
			return s, nil
		}
		conn, err := r.dial(ctx)
		if err != nil {
			return nil, err
		}
		s, err := openSession(ctx, conn, r.me, c)
		if err != nil {
			conn.Close()
			return nil, err
		}
		r.mu.Lock()
		r.sessions[c.Channel] = s
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Get returns the open session on chanID or nil.
func (r *Registry) Get(chanID string) *Session {
	return r.lookup(chanID)
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close closes all sessions.
func (r *Registry) Close() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	var g errgroup.Group
	for _, s := range sessions {
		g.Go(s.Close)
	}
	return g.Wait()
}
