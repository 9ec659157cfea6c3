// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package netfluxtest implements an in-process channel relay for tests.
//
// The relay speaks the frame vocabulary of package netflux, keeps channel
// history in memory, and runs a history keeper peer which replays history
// and answers RPC calls.
package netfluxtest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/padcomm/padctl/netflux"
	"golang.org/x/net/websocket"
)

// RPCHandler answers an RPC call. A non-nil error is sent back as the error
// field of the response.
type RPCHandler func(from string, args []json.RawMessage) (interface{}, error)

// WritePrivateMessage is the RPC command which appends a message to the
// history of a channel on behalf of the caller.
const WritePrivateMessage = "WRITE_PRIVATE_MESSAGE"

type client struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *client) send(elems ...interface{}) {
	b, err := json.Marshal(elems)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	websocket.Message.Send(c.ws, string(b))
}

type entry struct {
	sender  string
	payload string
}

type channelState struct {
	members []string
	history []entry
}

// Server is an in-process relay.
type Server struct {
	srv *httptest.Server

	// HistoryKeeperID is the peer ID of the history keeper.
	HistoryKeeperID string

	mu           sync.Mutex
	clients      map[string]*client
	channels     map[string]*channelState
	rpc          map[string]RPCHandler
	echo         bool
	silentKeeper bool
	decoys       []string
	calls        []string
	historyReqs  map[string][]string
}

func randomID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// NewServer starts a relay.
func NewServer() *Server {
	s := &Server{
		HistoryKeeperID: randomID()[:16],
		clients:         make(map[string]*client),
		channels:        make(map[string]*channelState),
		rpc:             make(map[string]RPCHandler),
		historyReqs:     make(map[string][]string),
	}
	s.rpc[WritePrivateMessage] = s.writePrivateMessage
	s.srv = httptest.NewServer(websocket.Handler(s.serve))
	return s
}

// URL returns the websocket URL of the relay.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

// Close shuts the relay down.
func (s *Server) Close() {
	s.DropClients()
	s.srv.Close()
}

// SetEcho makes the relay send broadcasts back to their sender.
func (s *Server) SetEcho(echo bool) {
	s.mu.Lock()
	s.echo = echo
	s.mu.Unlock()
}

// SetSilentKeeper makes the history keeper ignore all requests.
func (s *Server) SetSilentKeeper(silent bool) {
	s.mu.Lock()
	s.silentKeeper = silent
	s.mu.Unlock()
}

// AddDecoyPeer announces a peer which never answers on every channel, ahead
// of the history keeper.
func (s *Server) AddDecoyPeer(id string) {
	s.mu.Lock()
	s.decoys = append(s.decoys, id)
	s.mu.Unlock()
}

// HandleRPC registers h for the RPC command cmd.
func (s *Server) HandleRPC(cmd string, h RPCHandler) {
	s.mu.Lock()
	s.rpc[cmd] = h
	s.mu.Unlock()
}

// HistoryRequests returns the parameters of the history requests received
// for chanID so far, as raw JSON.
func (s *Server) HistoryRequests(chanID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.historyReqs[chanID]...)
}

// Calls returns the RPC commands received so far.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) channel(id string) *channelState {
	ch, ok := s.channels[id]
	if !ok {
		ch = &channelState{}
		s.channels[id] = ch
	}
	return ch
}

// AppendHistory appends a message to the history of a channel.
func (s *Server) AppendHistory(chanID, sender, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.channel(chanID)
	ch.history = append(ch.history, entry{sender, payload})
}

// History returns the payloads stored for a channel.
func (s *Server) History(chanID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payloads []string
	for _, e := range s.channel(chanID).history {
		payloads = append(payloads, e.payload)
	}
	return payloads
}

// Members returns the client peers on a channel.
func (s *Server) Members(chanID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.channel(chanID).members...)
}

// DropClients closes all client connections.
func (s *Server) DropClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	for _, c := range clients {
		c.ws.Close()
	}
}

func (s *Server) others(chanID, self string) []*client {
	var cs []*client
	for _, m := range s.channel(chanID).members {
		if m == self {
			continue
		}
		if c, ok := s.clients[m]; ok {
			cs = append(cs, c)
		}
	}
	return cs
}

func (s *Server) serve(ws *websocket.Conn) {
	c := &client{id: randomID(), ws: ws}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	defer s.disconnect(c)
	c.send(0, "", netflux.CmdIdent, c.id)
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			return
		}
		f, err := netflux.ParseFrame([]byte(msg))
		if err != nil {
			continue
		}
		s.handle(c, f)
	}
}

func (s *Server) disconnect(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	for id, ch := range s.channels {
		for i, m := range ch.members {
			if m == c.id {
				ch.members = append(ch.members[:i], ch.members[i+1:]...)
				for _, o := range s.others(id, c.id) {
					go o.send(0, c.id, netflux.CmdLeave, id, "disconnected")
				}
				break
			}
		}
	}
	s.mu.Unlock()
}

func (s *Server) handle(c *client, f netflux.Frame) {
	seq := f.Seq()
	switch {
	case f.Is(1, netflux.CmdJoin):
		chanID, _ := f.String(2)
		s.join(c, seq, chanID)
	case f.Is(1, netflux.CmdLeave):
		chanID, _ := f.String(2)
		s.leave(c, chanID)
		c.send(seq, netflux.CmdAck)
	case f.Is(1, netflux.CmdMsg):
		target, _ := f.String(2)
		payload, _ := f.String(3)
		c.send(seq, netflux.CmdAck)
		s.msg(c, target, payload)
	default:
		c.send(seq, netflux.CmdError, "EINVAL")
	}
}

func (s *Server) join(c *client, seq int64, chanID string) {
	s.mu.Lock()
	ch := s.channel(chanID)
	members := append([]string(nil), ch.members...)
	ch.members = append(ch.members, c.id)
	others := s.others(chanID, c.id)
	decoys := append([]string(nil), s.decoys...)
	s.mu.Unlock()

	c.send(seq, netflux.CmdJack, chanID)
	for _, d := range decoys {
		c.send(0, d, netflux.CmdJoin, chanID)
	}
	c.send(0, s.HistoryKeeperID, netflux.CmdJoin, chanID)
	for _, m := range members {
		c.send(0, m, netflux.CmdJoin, chanID)
	}
	c.send(0, c.id, netflux.CmdJoin, chanID)
	for _, o := range others {
		o.send(0, c.id, netflux.CmdJoin, chanID)
	}
}

func (s *Server) leave(c *client, chanID string) {
	s.mu.Lock()
	ch := s.channel(chanID)
	for i, m := range ch.members {
		if m == c.id {
			ch.members = append(ch.members[:i], ch.members[i+1:]...)
			break
		}
	}
	others := s.others(chanID, c.id)
	s.mu.Unlock()
	for _, o := range others {
		o.send(0, c.id, netflux.CmdLeave, chanID, "manual")
	}
}

func (s *Server) msg(c *client, target, payload string) {
	if target == s.HistoryKeeperID {
		s.mu.Lock()
		silent := s.silentKeeper
		s.mu.Unlock()
		if !silent {
			go s.keeper(c, payload)
		}
		return
	}
	s.mu.Lock()
	for _, d := range s.decoys {
		if d == target {
			s.mu.Unlock()
			return
		}
	}
	if peer, ok := s.clients[target]; ok {
		s.mu.Unlock()
		peer.send(0, c.id, netflux.CmdMsg, target, payload)
		return
	}
	ch := s.channel(target)
	ch.history = append(ch.history, entry{c.id, payload})
	others := s.others(target, c.id)
	echo := s.echo
	s.mu.Unlock()
	for _, o := range others {
		o.send(0, c.id, netflux.CmdMsg, target, payload)
	}
	if echo {
		c.send(0, c.id, netflux.CmdMsg, target, payload)
	}
}

func (s *Server) reply(c *client, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	c.send(0, s.HistoryKeeperID, netflux.CmdMsg, c.id, string(b))
}

func (s *Server) keeper(c *client, payload string) {
	f, err := netflux.ParseFrame([]byte(payload))
	if err != nil {
		return
	}
	if f.Is(0, netflux.GetHistoryCmd) {
		chanID, _ := f.String(1)
		s.mu.Lock()
		s.historyReqs[chanID] = append(s.historyReqs[chanID], string(f.Raw(2)))
		history := append([]entry(nil), s.channel(chanID).history...)
		s.mu.Unlock()
		for _, e := range history {
			s.reply(c, []interface{}{0, e.sender, netflux.CmdMsg, chanID, e.payload})
		}
		s.reply(c, map[string]interface{}{"state": 1, "channel": chanID})
		return
	}
	txid, ok := f.String(0)
	if !ok || len(f) < 2 {
		return
	}
	var (
		cmd  string
		args []json.RawMessage
	)
	if inner, err := netflux.ParseFrame(f[1]); err == nil {
		// [txid, [cmd, args...]]
		cmd, _ = inner.String(0)
		args = inner[1:]
	} else {
		// [txid, cmd, args...]
		cmd, _ = f.String(1)
		args = f[2:]
	}
	s.mu.Lock()
	s.calls = append(s.calls, cmd)
	h, ok := s.rpc[cmd]
	s.mu.Unlock()
	if !ok {
		s.reply(c, []interface{}{txid, "UNKNOWN_COMMAND", nil})
		return
	}
	result, err := h(c.id, args)
	if err != nil {
		s.reply(c, []interface{}{txid, err.Error(), nil})
		return
	}
	s.reply(c, []interface{}{txid, nil, result})
}

// writePrivateMessage appends args[0] = [channel, message] to the channel
// history and forwards it to the channel members.
func (s *Server) writePrivateMessage(from string, args []json.RawMessage) (interface{}, error) {
	if len(args) < 1 {
		return nil, errInvalid
	}
	var params []string
	if err := json.Unmarshal(args[0], &params); err != nil || len(params) != 2 {
		return nil, errInvalid
	}
	s.mu.Lock()
	ch := s.channel(params[0])
	ch.history = append(ch.history, entry{from, params[1]})
	others := s.others(params[0], "")
	s.mu.Unlock()
	for _, o := range others {
		o.send(0, from, netflux.CmdMsg, params[0], params[1])
	}
	return nil, nil
}
