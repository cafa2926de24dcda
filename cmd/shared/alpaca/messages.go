package alpaca

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/kaanureyen/emabot/cmd/shared"
)

const (
	typeSuccess      = "success"
	typeError        = "error"
	typeSubscription = "subscription"

	msgConnected     = "connected"
	msgAuthenticated = "authenticated"
)

// message is one element of a stream frame. Control fields and market data share the frame.
type message struct {
	shared.TradeEvent
	Msg    string   `json:"msg"`
	Code   int      `json:"code"`
	Trades []string `json:"trades"`
}

type authRequest struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type subscribeRequest struct {
	Action string   `json:"action"`
	Trades []string `json:"trades"`
}

// decodeFrame splits a frame into its messages. Frames are JSON arrays; a bare object is
// accepted as a single message. An element that fails to decode is reported in bad and skipped.
func decodeFrame(data []byte) (msgs []message, bad []error, err error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		data = append(append([]byte{'['}, data...), ']')
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.Wrap(err, "decode frame")
	}

	msgs = make([]message, 0, len(raw))
	for i, r := range raw {
		var m message
		if err := json.Unmarshal(r, &m); err != nil {
			bad = append(bad, errors.Wrapf(err, "decode message %d", i))
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, bad, nil
}
