// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netflux

import (
	"context"
	"net/url"

	"github.com/padcomm/padctl/log"
	"golang.org/x/net/websocket"
)

// Transport carries frames. The websocket transport returned by
// DialWebSocket is the only production implementation.
type Transport interface {
	ReadFrame() ([]byte, error)
	WriteFrame([]byte) error
	Close() error
}

type wsTransport struct {
	ws *websocket.Conn
}

func (t *wsTransport) ReadFrame() ([]byte, error) {
	var msg string
	if err := websocket.Message.Receive(t.ws, &msg); err != nil {
		return nil, err
	}
	return []byte(msg), nil
}

func (t *wsTransport) WriteFrame(b []byte) error {
	return websocket.Message.Send(t.ws, string(b))
}

func (t *wsTransport) Close() error {
	return t.ws.Close()
}

func origin(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", err
	}
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}
	return scheme + "://" + u.Host, nil
}

// DialWebSocket opens a websocket transport to the relay at wsURL.
func DialWebSocket(ctx context.Context, wsURL string) (Transport, error) {
	o, err := origin(wsURL)
	if err != nil {
		return nil, log.Error(err)
	}
	cfg, err := websocket.NewConfig(wsURL, o)
	if err != nil {
		return nil, log.Error(err)
	}
	ws, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, log.Error(err)
	}
	return &wsTransport{ws: ws}, nil
}
