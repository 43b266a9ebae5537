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

package testutil

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Request is a GraphQL request received by Server.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`

	// Header of the HTTP request
	Header http.Header `json:"-"`
}

// Responder computes the reply to a request. A body of type []byte is written verbatim; Anything
// else is encoded into JSON.
type Responder func(req *Request) (status int, body interface{})

// Server is an HTTP GraphQL endpoint for tests. It records every request.
type Server struct {
	*httptest.Server

	responder Responder

	mutex    sync.Mutex
	requests []*Request
}

// maxBodySize caps the bytes read from a request body.
const maxBodySize = 10 << 20

// NewServer starts a Server replying with responder.
func NewServer(responder Responder) *Server {
	server := &Server{
		responder: responder,
	}
	server.Server = httptest.NewServer(http.HandlerFunc(server.serveHTTP))
	return server
}

func (server *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r, maxBodySize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	server.mutex.Lock()
	server.requests = append(server.requests, req)
	server.mutex.Unlock()

	status, body := server.responder(req)

	data, ok := body.([]byte)
	if !ok {
		data, err = json.Marshal(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	w.Write(data)
}

// Requests returns the requests received so far.
func (server *Server) Requests() []*Request {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return append([]*Request(nil), server.requests...)
}

// If the value doesn't contains value for the given key, return an empty string without error.
// If there're multiple values associated with the key, return an error.
func getOneValue(values url.Values, key string) (string, error) {
	v := values[key]
	switch len(v) {
	case 0:
		return "", nil
	case 1:
		return v[0], nil
	default:
		return "", fmt.Errorf(`multiple values are provided to "%s", but only one expected`, key)
	}
}

func parseRequestFromValues(values url.Values) (*Request, error) {
	var (
		req Request
		err error
	)

	if req.Query, err = getOneValue(values, "query"); err != nil {
		return nil, err
	}
	if req.OperationName, err = getOneValue(values, "operationName"); err != nil {
		return nil, err
	}

	variables, err := getOneValue(values, "variables")
	if err != nil {
		return nil, err
	}
	if len(variables) > 0 {
		if err := json.NewDecoder(strings.NewReader(variables)).Decode(&req.Variables); err != nil {
			return nil, err
		}
	}

	return &req, nil
}

var errRequestBodyTooLarge = errors.New("request body is too large")

// ParseRequest parses a GraphQL request from a GET query string or a POST body in one of the
// application/json, application/graphql and application/x-www-form-urlencoded content types.
func ParseRequest(r *http.Request, maxBodySize uint) (*Request, error) {
	req, err := parseRequest(r, maxBodySize)
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	return req, nil
}

func parseRequest(r *http.Request, maxBodySize uint) (*Request, error) {
	switch r.Method {
	case http.MethodGet:
		values, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			return nil, err
		}
		return parseRequestFromValues(values)

	case http.MethodPost:
		contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

		body, err := io.ReadAll(io.LimitReader(r.Body, int64(maxBodySize+1)))
		if err != nil {
			return nil, err
		}
		if len(body) > int(maxBodySize) {
			return nil, errRequestBodyTooLarge
		}

		switch contentType {
		case "application/graphql":
			return &Request{
				Query: string(body),
			}, nil

		case "application/x-www-form-urlencoded":
			values, err := url.ParseQuery(string(body))
			if err != nil {
				return nil, err
			}
			return parseRequestFromValues(values)

		case "", "application/json":
			var req Request
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, err
			}
			return &req, nil
		}

		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	return nil, fmt.Errorf("unsupported method %s", r.Method)
}
