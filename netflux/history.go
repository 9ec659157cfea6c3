// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netflux

import (
	"context"
	"encoding/json"
	"time"

	"github.com/padcomm/padctl/log"
)

// HistoryRequest parameterizes a history replay.
type HistoryRequest struct {
	// ValidateKey is the public key patches on the channel are signed with.
	ValidateKey string
	// Owners are the Ed25519 public keys of the channel owners.
	Owners []string
	// LastKnownHash limits the replay to messages after it.
	LastKnownHash string
}

type historyMetadata struct {
	ValidateKey string   `json:"validateKey"`
	Owners      []string `json:"owners"`
}

type historyParams struct {
	Metadata      historyMetadata `json:"metadata"`
	LastKnownHash string          `json:"lastKnownHash"`
}

// GetHistoryCmd is the command sent to the history keeper.
const GetHistoryCmd = "GET_HISTORY"

func (r *HistoryRequest) encode(chanID string) (string, error) {
	owners := r.Owners
	if owners == nil {
		owners = []string{}
	}
	b, err := json.Marshal([]interface{}{GetHistoryCmd, chanID, historyParams{
		Metadata: historyMetadata{
			ValidateKey: r.ValidateKey,
			Owners:      owners,
		},
		LastKnownHash: r.LastKnownHash,
	}})
	if err != nil {
		return "", log.Error(err)
	}
	return string(b), nil
}

type historyEvent struct {
	msg *Message
	end bool
	err error
}

type historyState struct {
	State   int    `json:"state"`
	Channel string `json:"channel"`
	Error   string `json:"error"`
}

func parseState(chanID string, raw json.RawMessage) (historyEvent, bool) {
	var st historyState
	if err := json.Unmarshal(raw, &st); err != nil {
		return historyEvent{}, false
	}
	if st.Channel != "" && st.Channel != chanID {
		return historyEvent{}, false
	}
	if st.Error != "" {
		return historyEvent{err: &HistoryError{Channel: chanID, Code: st.Error}}, true
	}
	if st.State == 1 {
		return historyEvent{end: true}, true
	}
	return historyEvent{}, false
}

// parseHistory parses a message from the history keeper. It recognizes
// history items [seq, sender, "MSG", channel, payload], the end marker
// {state: 1, channel} (bare or as [0, {...}]), and errors.
func parseHistory(chanID, payload string) (historyEvent, bool) {
	raw := json.RawMessage(payload)
	if len(payload) > 0 && payload[0] == '{' {
		return parseState(chanID, raw)
	}
	f, err := ParseFrame([]byte(payload))
	if err != nil {
		return historyEvent{}, false
	}
	if len(f) == 2 && len(f[1]) > 0 && f[1][0] == '{' {
		return parseState(chanID, f[1])
	}
	if len(f) >= 5 && f.Is(2, CmdMsg) && f.Is(3, chanID) {
		content, ok := f.String(4)
		if !ok {
			// metadata and other non-message entries
			return historyEvent{}, false
		}
		sender, _ := f.String(1)
		return historyEvent{msg: &Message{
			Sender:  sender,
			Channel: chanID,
			Payload: content,
			History: true,
		}}, true
	}
	return historyEvent{}, false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// History requests the history of the channel from its history keeper and
// calls fn for every replayed message, in order. It returns complete = true
// if the end of the history was signaled. If the history keeper stays
// silent for the idle timeout, the replay is considered finished; if it
// never answered at all, the next observed peer is tried.
func (ch *Channel) History(ctx context.Context, req HistoryRequest, fn func(Message)) (bool, error) {
	msg, err := req.encode(ch.id)
	if err != nil {
		return false, err
	}
	if hk := ch.conn.opts.HistoryKeeper; hk != "" {
		complete, _, err := ch.history(ctx, hk, msg, fn)
		return complete, err
	}
	if _, err := ch.waitPeers(ctx, 0); err != nil {
		return false, log.Error(err)
	}
	tried := make(map[string]bool)
	for {
		hk := nextUntried(ch.Peers(), tried)
		if hk == "" {
			break
		}
		tried[hk] = true
		complete, n, err := ch.history(ctx, hk, msg, fn)
		if err != nil || complete || n > 0 {
			return complete, err
		}
		log.Warnf("netflux: no history from %s on %s, trying next peer", hk, ch.id)
	}
	log.Warnf("netflux: no history keeper answered on %s", ch.id)
	return false, nil
}

// nextUntried returns the first of peers not in tried, or "".
func nextUntried(peers []string, tried map[string]bool) string {
	for _, p := range peers {
		if !tried[p] {
			return p
		}
	}
	return ""
}

func (ch *Channel) history(ctx context.Context, hk, msg string, fn func(Message)) (bool, int, error) {
	var (
		sink = make(chan historyEvent, 64)
		done = make(chan struct{})
		n    int
	)
	defer close(done)
	unsubscribe := ch.conn.OnDirect(func(from, payload string) {
		if from != hk {
			return
		}
		ev, ok := parseHistory(ch.id, payload)
		if !ok {
			return
		}
		select {
		case sink <- ev:
		case <-done:
		}
	})
	defer unsubscribe()

	if err := sleep(ctx, ch.conn.opts.HistoryDelay); err != nil {
		return false, 0, log.Error(err)
	}
	log.Debugf("netflux: request history of %s from %s", ch.id, hk)
	if err := ch.conn.SendTo(ctx, hk, msg); err == ErrAckTimeout {
		log.Warnf("netflux: history request on %s not acknowledged", ch.id)
	} else if err != nil {
		return false, 0, err
	}

	idle := time.NewTimer(ch.conn.opts.HistoryTimeout)
	defer idle.Stop()
	for {
		select {
		case ev := <-sink:
			switch {
			case ev.err != nil:
				return false, n, log.Error(ev.err)
			case ev.end:
				log.Debugf("netflux: history of %s complete (%d messages)", ch.id, n)
				return true, n, nil
			default:
				n++
				fn(*ev.msg)
			}
			idle.Reset(ch.conn.opts.HistoryTimeout)
		case <-idle.C:
			if n > 0 {
				log.Warnf("netflux: history of %s timed out after %d messages", ch.id, n)
			}
			return false, n, nil
		case <-ctx.Done():
			return false, n, log.Error(ctx.Err())
		case <-ch.conn.closed:
			return false, n, ErrClosed
		}
	}
}
