// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package rest is the stateless request/response façade: history,
// presence, stats, and time queries over plain HTTP with RFC-5988
// Link pagination. It shares the codec pipeline with the
// realtime side but never touches the connection state machine.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sage-x-project/relay/internal/logger"
	"github.com/sage-x-project/relay/pkg/realtime/codec"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// DefaultLimit is applied to paginated queries that do not set limit.
const DefaultLimit = 100

// Doer issues one HTTP request. The concrete HTTP client (pooling, TLS,
// redirects) is an external collaborator consumed through this narrow
// surface.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues stateless requests against the service's HTTP surface.
type Client struct {
	base     *url.URL
	doer     Doer
	pipeline *codec.Pipeline
	log      logger.Logger
}

// NewClient builds a Client for baseURL using doer for transport.
func NewClient(baseURL string, doer Doer) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("rest: parse base url: %w", err)
	}
	return &Client{
		base:     u,
		doer:     doer,
		pipeline: codec.Default(),
		log:      logger.GetDefaultLogger().WithFields(logger.String("component", "rest")),
	}, nil
}

// History fetches the first page of a channel's message history.
// params may carry direction, start, end, and limit; limit defaults to
// 100 when absent.
func (c *Client) History(ctx context.Context, channel string, params url.Values) (*PaginatedResult, error) {
	return c.getPage(ctx, "/channels/"+url.PathEscape(channel)+"/history", params)
}

// Messages fetches the first page of a channel's persisted messages.
func (c *Client) Messages(ctx context.Context, channel string, params url.Values) (*PaginatedResult, error) {
	return c.getPage(ctx, "/channels/"+url.PathEscape(channel)+"/messages", params)
}

// Presence fetches the first page of a channel's current presence set.
func (c *Client) Presence(ctx context.Context, channel string, params url.Values) (*PaginatedResult, error) {
	return c.getPage(ctx, "/channels/"+url.PathEscape(channel)+"/presence", params)
}

// Stats fetches the first page of application statistics.
func (c *Client) Stats(ctx context.Context, params url.Values) (*PaginatedResult, error) {
	return c.getPage(ctx, "/stats", params)
}

// Time returns the service time.
func (c *Client) Time(ctx context.Context) (time.Time, error) {
	body, _, err := c.get(ctx, "/time", nil)
	if err != nil {
		return time.Time{}, err
	}
	// The endpoint answers a one-element array of epoch milliseconds.
	var ms []int64
	if err := json.Unmarshal(body, &ms); err != nil || len(ms) == 0 {
		return time.Time{}, fmt.Errorf("rest: malformed time response: %w", err)
	}
	return time.UnixMilli(ms[0]).UTC(), nil
}

// Publish posts a message to a channel over the request/response
// surface, encoding the payload through the same codec pipeline the
// realtime side uses.
func (c *Client) Publish(ctx context.Context, channel string, msg *proto.Message, opts proto.ChannelOptions) error {
	if err := c.pipeline.EncodeMessage(msg, opts, true); err != nil {
		return fmt.Errorf("rest: encode publish payload: %w", err)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rest: marshal publish body: %w", err)
	}

	u := c.resolve("/channels/"+url.PathEscape(channel)+"/messages", nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rest: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("rest: publish request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return errorFromResponse(resp, respBody)
	}
	return nil
}

func (c *Client) resolve(path string, params url.Values) string {
	u := *c.base
	u.Path = u.Path + path
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (body []byte, resp *http.Response, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path, params), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("rest: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err = c.doer.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("rest: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("rest: read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, resp, errorFromResponse(resp, body)
	}
	return body, resp, nil
}

func (c *Client) getPage(ctx context.Context, path string, params url.Values) (*PaginatedResult, error) {
	if params == nil {
		params = url.Values{}
	}
	if _, ok := params["limit"]; !ok {
		params.Set("limit", strconv.Itoa(DefaultLimit))
	}

	body, resp, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("rest: malformed page body: %w", err)
	}

	return &PaginatedResult{
		client: c,
		path:   path,
		items:  items,
		links:  ParseLinks(resp.Header.Values("Link")),
	}, nil
}

func errorFromResponse(resp *http.Response, body []byte) error {
	var wrapped struct {
		Error *proto.ErrorInfo `json:"error"`
	}
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != nil {
		wrapped.Error.StatusCode = resp.StatusCode
		return wrapped.Error
	}
	return &proto.ErrorInfo{
		StatusCode: resp.StatusCode,
		Message:    "request failed with status " + resp.Status,
	}
}
