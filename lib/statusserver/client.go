// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/iometer/lib/telemetry"
)

// maxResponseSize bounds response body reads. Real responses are a few
// kilobytes.
const maxResponseSize int64 = 1 << 20

// ErrNotFound is returned (wrapped) when the server answers 404: the
// stream does not exist or has not published yet.
var ErrNotFound = errors.New("not found")

// Client queries a status server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the server at baseURL, for example
// "http://127.0.0.1:9090". A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

// Streams returns the names of the server's streams.
func (c *Client) Streams(ctx context.Context) ([]string, error) {
	var list StreamList
	if err := c.get(ctx, "/api/v1/streams", &list); err != nil {
		return nil, err
	}
	return list.Streams, nil
}

// Report returns the latest published report of stream.
func (c *Client) Report(ctx context.Context, stream string) (*telemetry.PublishedReport, error) {
	var report telemetry.PublishedReport
	if err := c.get(ctx, streamPath(stream, "report"), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Summary returns the latest summary of stream.
func (c *Client) Summary(ctx context.Context, stream string) (telemetry.Summary, error) {
	var summary telemetry.Summary
	if err := c.get(ctx, streamPath(stream, "summary"), &summary); err != nil {
		return telemetry.Summary{}, err
	}
	return summary, nil
}

// Watch calls fn with every summary the server pushes for stream until
// ctx is cancelled, fn returns an error, or the connection fails. A
// cancelled ctx returns nil.
func (c *Client) Watch(ctx context.Context, stream string, fn func(telemetry.Summary) error) error {
	watchURL, err := url.Parse(c.baseURL + streamPath(stream, "watch"))
	if err != nil {
		return fmt.Errorf("watch URL: %w", err)
	}
	switch watchURL.Scheme {
	case "http":
		watchURL.Scheme = "ws"
	case "https":
		watchURL.Scheme = "wss"
	}

	conn, response, err := websocket.DefaultDialer.DialContext(ctx, watchURL.String(), nil)
	if err != nil {
		if response != nil && response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("watching %s: %w", stream, ErrNotFound)
		}
		return fmt.Errorf("watching %s: %w", stream, err)
	}
	defer conn.Close()

	// ReadJSON does not observe ctx; closing the connection unblocks it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var summary telemetry.Summary
		if err := conn.ReadJSON(&summary); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("watching %s: %w", stream, err)
		}
		if err := fn(summary); err != nil {
			return err
		}
	}
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer response.Body.Close()

	body := io.LimitReader(response.Body, maxResponseSize)
	if response.StatusCode != http.StatusOK {
		message := errorMessage(body)
		if response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("GET %s: %s: %w", path, message, ErrNotFound)
		}
		return fmt.Errorf("GET %s: %s: %s", path, response.Status, message)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decoding GET %s: %w", path, err)
	}
	return nil
}

// errorMessage extracts the message of an ErrorResponse body, falling
// back to the raw body. Read errors are ignored; a partial body is
// still useful in an error.
func errorMessage(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var decoded ErrorResponse
	if json.Unmarshal(data, &decoded) == nil && decoded.Error != "" {
		return decoded.Error
	}
	return strings.TrimSpace(string(data))
}

func streamPath(stream, view string) string {
	return "/api/v1/streams/" + url.PathEscape(stream) + "/" + view
}
