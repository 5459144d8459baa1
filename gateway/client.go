// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
)

// ContentType 與儲存端約定的請求格式。
const ContentType = "application/json; charset=UTF-8"

const defaultTimeout = 5 * time.Second

// Client 以 HTTP 連到 store API 的 Gateway 實作。
//
//	GET  /players?name=<name>  → []Player
//	POST /players              ← Player
//	PUT  /players/{id}         ← Player
//	GET  /operator             → Operator
//	PUT  /operator             ← Operator
type Client struct {
	base string
	hc   *http.Client
}

// NewClient 建立 Client；hc 為 nil 時使用帶 timeout 的預設 http.Client。
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errs.Fatalf("invalid gateway url: %q", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: strings.TrimRight(u.String(), "/"), hc: hc}, nil
}

// BaseURL 回傳正規化後的 base url。
func (c *Client) BaseURL() string {
	return c.base
}

func (c *Client) GetPlayerByName(ctx context.Context, name string) (*engine.Player, error) {
	var list []engine.Player
	q := url.Values{"name": []string{name}}
	if err := c.do(ctx, http.MethodGet, "/players?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	p := list[0]
	return &p, nil
}

func (c *Client) CreatePlayer(ctx context.Context, p engine.Player) error {
	return c.do(ctx, http.MethodPost, "/players", p, nil)
}

func (c *Client) UpdatePlayer(ctx context.Context, id int, p engine.Player) error {
	return c.do(ctx, http.MethodPut, "/players/"+strconv.Itoa(id), p, nil)
}

func (c *Client) GetOperator(ctx context.Context) (engine.Operator, error) {
	op := engine.NewOperator()
	if err := c.do(ctx, http.MethodGet, "/operator", nil, &op); err != nil {
		return engine.Operator{}, err
	}
	if op.SubmittedTickets == nil {
		op.SubmittedTickets = []engine.Ticket{}
	}
	return op, nil
}

func (c *Client) UpdateOperator(ctx context.Context, op engine.Operator) error {
	return c.do(ctx, http.MethodPut, "/operator", op, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errs.Wrap(err, "encode request body failed")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return errs.Wrap(err, "build request failed")
	}
	if in != nil {
		req.Header.Set("Content-type", ContentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return errs.Wrap(err, fmt.Sprintf("%s %s failed", method, path))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e := errs.Fatalf("%s %s: status %d", method, path, resp.StatusCode)
		switch resp.StatusCode {
		case http.StatusNotFound:
			e = errs.ErrNotFound.WithExtra(path)
		case http.StatusConflict:
			e = errs.ErrConflict.WithExtra(path)
		}
		if s := strings.TrimSpace(string(msg)); s != "" {
			e.Cause = errs.NewLog(s)
		}
		return e
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(err, fmt.Sprintf("decode %s %s response failed", method, path))
	}
	return nil
}
