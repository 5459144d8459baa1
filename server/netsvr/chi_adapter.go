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

package netsvr

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/server/httperr"
)

// chiRouter 以 chi 實作 NetRouter，群組路由也是它。
type chiRouter struct {
	r chi.Router
}

func (c chiRouter) Use(mw func(http.Handler) http.Handler)  { c.r.Use(mw) }
func (c chiRouter) Get(path string, h http.HandlerFunc)     { c.r.Get(path, h) }
func (c chiRouter) Post(path string, h http.HandlerFunc)    { c.r.Post(path, h) }
func (c chiRouter) Put(path string, h http.HandlerFunc)     { c.r.Put(path, h) }
func (c chiRouter) Delete(path string, h http.HandlerFunc)  { c.r.Delete(path, h) }

// Mount 掛上完整的 http.Handler（例如 promhttp），只比對 path 本身。
func (c chiRouter) Mount(path string, h http.Handler) { c.r.Handle(path, h) }

func (c chiRouter) Group(path string, fn func(NetRouter)) {
	c.r.Route(path, func(sub chi.Router) { fn(chiRouter{r: sub}) })
}

// ChiAdapter chi 路由加上 http.Server，實作 NetSvr。
type ChiAdapter struct {
	chiRouter
	mux    *chi.Mux
	server *http.Server

	mu sync.Mutex
	ln net.Listener
}

// NewChiServer addr 例如 ":8039"；":0" 由系統配置埠號，Run 之後以 Address 取得。
func NewChiServer(addr string) *ChiAdapter {
	return NewChiServerWith(addr, DefaultTimeouts)
}

func NewChiServerWith(addr string, t Timeouts) *ChiAdapter {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperr.Errs(w, errs.ErrNotFound)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperr.Errs(w, errs.ErrMethodNotAllowed.WithExtra(r.Method))
	})
	return &ChiAdapter{
		chiRouter: chiRouter{r: mux},
		mux:       mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  t.Read,
			WriteTimeout: t.Write,
			IdleTimeout:  t.Idle,
		},
	}
}

func (c *ChiAdapter) Ready() bool {
	if c == nil || c.mux == nil || c.server == nil {
		return false
	}
	_, _, err := net.SplitHostPort(c.server.Addr)
	return err == nil
}

// Run 監聽並服務直到 Shutdown；正常關閉時回傳 http.ErrServerClosed。
func (c *ChiAdapter) Run() error {
	ln, err := net.Listen("tcp", c.server.Addr)
	if err != nil {
		return errs.Wrap(err, "listen failed: "+c.server.Addr)
	}
	c.mu.Lock()
	c.ln = ln
	c.mu.Unlock()
	return c.server.Serve(ln)
}

func (c *ChiAdapter) Shutdown(ctx context.Context) error {
	return c.server.Shutdown(ctx)
}

// Address Run 之後回傳實際監聽位址，之前回傳設定值。
func (c *ChiAdapter) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ln != nil {
		return c.ln.Addr().String()
	}
	return c.server.Addr
}

// Handler 根路由，供 httptest 使用。
func (c *ChiAdapter) Handler() http.Handler {
	return c.mux
}
