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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestChiRoutesAndFallbacks(t *testing.T) {
	svr := NewChiServer(":0")
	svr.Group("/v1", func(r NetRouter) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "pong") })
	})

	cases := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/v1/ping", http.StatusOK, "pong"},
		{http.MethodGet, "/v2/ping", http.StatusNotFound, `"kind":"not_found"`},
		{http.MethodPost, "/v1/ping", http.StatusMethodNotAllowed, `"kind":"method_not_allowed"`},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		svr.Handler().ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		if rec.Code != c.status || !strings.Contains(rec.Body.String(), c.body) {
			t.Fatalf("%s %s: got %d %q", c.method, c.path, rec.Code, rec.Body.String())
		}
	}
}

func TestChiRunAndShutdown(t *testing.T) {
	svr := NewChiServer("127.0.0.1:0")
	if !svr.Ready() {
		t.Fatalf("server should be ready")
	}
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "ok") })

	done := make(chan error, 1)
	go func() { done <- svr.Run() }()

	deadline := time.Now().Add(2 * time.Second)
	for strings.HasSuffix(svr.Address(), ":0") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	resp, err := http.Get("http://" + svr.Address() + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(b) != "ok" {
		t.Fatalf("unexpected body %q", b)
	}

	if err := svr.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-done; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("run returned %v", err)
	}
}

func TestReadyRejectsBadAddr(t *testing.T) {
	if NewChiServer("8039").Ready() {
		t.Fatalf("address without port separator must not be ready")
	}
	var nilSvr *ChiAdapter
	if nilSvr.Ready() {
		t.Fatalf("nil adapter must not be ready")
	}
}
