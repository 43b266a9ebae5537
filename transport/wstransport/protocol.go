/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package wstransport

import (
	"github.com/botobag/gqlbind/binding"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Subprotocol is the WebSocket subprotocol negotiated by Dial.
const Subprotocol = "graphql-transport-ws"

// MessageType is the "type" field of a protocol message.
type MessageType string

// Enumeration of MessageType
const (
	MessageConnectionInit MessageType = "connection_init"
	MessageConnectionAck  MessageType = "connection_ack"
	MessagePing           MessageType = "ping"
	MessagePong           MessageType = "pong"
	MessageSubscribe      MessageType = "subscribe"
	MessageNext           MessageType = "next"
	MessageError          MessageType = "error"
	MessageComplete       MessageType = "complete"
)

// Close codes defined by the protocol
const (
	CloseBadRequest              = 4400
	CloseUnauthorized            = 4401
	CloseForbidden               = 4403
	CloseInitTimeout             = 4408
	CloseSubscriberAlreadyExists = 4409
	CloseTooManyInitRequests     = 4429
)

// Message is the envelope of every protocol message.
type Message struct {
	ID      string              `json:"id,omitempty"`
	Type    MessageType         `json:"type"`
	Payload jsoniter.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload is the payload of a "subscribe" message.
type SubscribePayload struct {
	Query         string            `json:"query"`
	Variables     binding.Variables `json:"variables,omitempty"`
	OperationName string            `json:"operationName,omitempty"`
}

func encodeMessage(id string, typ MessageType, payload interface{}) ([]byte, error) {
	message := Message{
		ID:   id,
		Type: typ,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		message.Payload = data
	}
	return json.Marshal(&message)
}

func decodeMessage(data []byte) (*Message, error) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, &ProtocolError{Message: "malformed message", Err: err}
	}
	if len(message.Type) == 0 {
		return nil, &ProtocolError{Message: "message without type"}
	}
	return &message, nil
}
