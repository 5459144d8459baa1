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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/lottolab/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing name", errs.ErrMissingPlayerName, http.StatusBadRequest},
		{"funds", errs.ErrInsufficientFunds.WithExtra("balance=0"), http.StatusPaymentRequired},
		{"gate", errs.Wrap(errs.ErrGateClosed, "buy"), http.StatusConflict},
		{"tickets", errs.ErrInsufficientTickets, http.StatusConflict},
		{"not found", errs.ErrNotFound, http.StatusNotFound},
		{"method", errs.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{"plain warn", errs.NewWarn("rounds must be at least 1"), http.StatusBadRequest},
		{"fatal", errs.NewFatal("redis down"), http.StatusInternalServerError},
		{"foreign", errors.New("boom"), http.StatusInternalServerError},
		{"deadline", errs.Wrap(context.DeadlineExceeded, "update player"), http.StatusGatewayTimeout},
		{"canceled", context.Canceled, http.StatusRequestTimeout},
	}
	for _, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Errorf("%s: got %d want %d", c.name, got, c.want)
		}
	}
}

func TestErrsBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, errs.ErrGateClosed)
	if rec.Code != http.StatusConflict || !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	var b Body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Kind != "gate_closed" || !strings.Contains(b.Error, "purchase gate is closed") {
		t.Fatalf("unexpected body %+v", b)
	}

	rec = httptest.NewRecorder()
	Errs(rec, nil)
	if rec.Body.Len() != 0 {
		t.Fatalf("nil error must not write")
	}
}

func TestLogSkipsBusinessRejections(t *testing.T) {
	var sb strings.Builder
	log := slog.New(slog.NewTextHandler(&sb, nil))
	Log(log, "buy failed", errs.ErrInsufficientFunds)
	if sb.Len() != 0 {
		t.Fatalf("402 must not be logged: %s", sb.String())
	}
	Log(log, "draw failed", errs.ErrGateClosed)
	Log(log, "store failed", errs.NewFatal("redis down"))
	out := sb.String()
	if !strings.Contains(out, "level=WARN msg=\"draw failed\"") || !strings.Contains(out, "level=ERROR msg=\"store failed\"") {
		t.Fatalf("unexpected log output:\n%s", out)
	}
}
