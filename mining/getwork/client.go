// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

// Package getwork speaks the getwork JSON-over-HTTP mining protocol:
// fetching work templates, submitting solved nonces, and long-polling for
// block-change pushes.
package getwork

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minerorg/gwminer/utils"
)

const (
	// requestTimeout bounds ordinary fetch and submit round trips.
	requestTimeout = 10 * time.Second

	// longPollTimeout is how long a long-poll read may idle before the
	// client gives up and reissues it.
	longPollTimeout = 30 * time.Minute

	// longPollHeader is the response header advertising the long-poll path.
	longPollHeader = "X-Long-Polling"

	// miningExtensions advertises optional protocol capabilities.
	miningExtensions = "midstate"
)

var (
	// ErrUnauthorized is returned on HTTP 401/403; the credentials are
	// wrong and retrying is pointless.
	ErrUnauthorized = errors.New("access denied")

	// ErrMalformed is returned when a response arrives but does not carry
	// the expected fields. The node may recover, so retrying is sensible.
	ErrMalformed = errors.New("malformed getwork response")
)

type rpcRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type workResult struct {
	Data   string `json:"data"`
	Target string `json:"target"`
}

// Client issues getwork requests against a single node endpoint. It owns
// no concurrency; callers coordinate goroutines themselves.
type Client struct {
	url  *url.URL
	user string
	pass string

	hc  *http.Client // fetch and submit
	lpc *http.Client // long poll, extended read timeout
}

// NewClient builds a client for the node at rawURL. auth is "user:pass"
// for HTTP basic authentication.
func NewClient(rawURL, auth string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid node URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid node URL %q: unsupported scheme", rawURL)
	}

	user, pass, _ := strings.Cut(auth, ":")

	return &Client{
		url:  u,
		user: user,
		pass: pass,
		hc:   &http.Client{Timeout: requestTimeout},
		lpc:  &http.Client{Timeout: longPollTimeout},
	}, nil
}

// URL returns the node endpoint this client talks to.
func (c *Client) URL() *url.URL {
	return c.url
}

// Fetch requests a fresh work template from the node.
func (c *Client) Fetch(ctx context.Context) (*Work, error) {
	return c.fetchWork(ctx, c.hc, c.url)
}

// LongPoll issues a fetch against the node's long-poll URL. The request
// blocks server-side until new work exists; cancelling ctx aborts the
// pending read immediately.
func (c *Client) LongPoll(ctx context.Context, u *url.URL) (*Work, error) {
	return c.fetchWork(ctx, c.lpc, u)
}

// Submit patches nonce into a copy of the work's data and offers it back
// to the node. Returns whether the node accepted the proof of work.
func (c *Client) Submit(ctx context.Context, w *Work, nonce uint32) (bool, error) {
	data := append([]byte(nil), w.Data...)

	// The submission byte order is a protocol fixture. It is NOT the
	// word-reversed order used to derive the hashing header; changing it
	// produces submissions the node silently rejects.
	data[79] = byte(nonce)
	data[78] = byte(nonce >> 8)
	data[77] = byte(nonce >> 16)
	data[76] = byte(nonce >> 24)

	rpc, _, err := c.post(ctx, c.hc, c.url, rpcRequest{
		Method: "getwork",
		Params: []string{hex.EncodeToString(data)},
		ID:     1,
	})
	if err != nil {
		return false, err
	}

	var accepted bool
	if err := json.Unmarshal(rpc.Result, &accepted); err != nil {
		return false, fmt.Errorf("%w: result field: %v", ErrMalformed, err)
	}
	return accepted, nil
}

func (c *Client) fetchWork(ctx context.Context, hc *http.Client, u *url.URL) (*Work, error) {
	rpc, resp, err := c.post(ctx, hc, u, rpcRequest{
		Method: "getwork",
		Params: []string{},
		ID:     0,
	})
	if err != nil {
		return nil, err
	}
	if rpc.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, rpc.Error)
	}

	var res workResult
	if err := json.Unmarshal(rpc.Result, &res); err != nil {
		return nil, fmt.Errorf("%w: result object: %v", ErrMalformed, err)
	}

	data, err := hex.DecodeString(res.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data field: %v", ErrMalformed, err)
	}
	if len(data) < 80 {
		return nil, fmt.Errorf("%w: data is %d bytes, need at least 80", ErrMalformed, len(data))
	}

	target, err := hex.DecodeString(res.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: target field: %v", ErrMalformed, err)
	}
	if len(target) != 32 {
		return nil, fmt.Errorf("%w: target is %d bytes, need 32", ErrMalformed, len(target))
	}

	header, err := utils.ReverseWords4(data[:80])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	w := &Work{
		Data:      data,
		Target:    target,
		Header:    header,
		FetchedAt: time.Now(),
	}

	if lp := resp.Header.Get(longPollHeader); lp != "" {
		if ref, err := url.Parse(lp); err == nil {
			w.LongPollURL = u.ResolveReference(ref)
		}
	}

	return w, nil
}

// post sends one JSON request and decodes the RPC envelope. Transport
// failures come back unwrapped for the caller to classify; 401 and 403
// map to ErrUnauthorized.
func (c *Client) post(ctx context.Context, hc *http.Client, u *url.URL, payload rpcRequest) (*rpcResponse, *http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.user, c.pass)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Mining-Extensions", miningExtensions)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil, fmt.Errorf("%w: HTTP %d", ErrUnauthorized, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var rpc rpcResponse
	if err := json.Unmarshal(respBody, &rpc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v (body: %.200s)", ErrMalformed, err, respBody)
	}

	return &rpc, resp, nil
}
