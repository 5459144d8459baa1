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

// Package httperr 是 errs 與 HTTP 之間的唯一轉換點；errs 本身不依賴 net/http。
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/lottolab/errs"
)

var kindStatus = map[errs.Kind]int{
	errs.KindMissingPlayerName:   http.StatusBadRequest,
	errs.KindInvalidTicketCount:  http.StatusBadRequest,
	errs.KindInsufficientFunds:   http.StatusPaymentRequired,
	errs.KindNotFound:            http.StatusNotFound,
	errs.KindMethodNotAllowed:    http.StatusMethodNotAllowed,
	errs.KindGateClosed:          http.StatusConflict,
	errs.KindInsufficientTickets: http.StatusConflict,
	errs.KindConflict:            http.StatusConflict,
}

// StatusCode 依序判斷：ctx 逾時 504、ctx 取消 408、Kind 對照表、Warn 400，其餘 500。
func StatusCode(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusRequestTimeout
	}
	if code, ok := kindStatus[errs.KindOf(err)]; ok {
		return code
	}
	if errs.LevelOf(err) == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Body 錯誤回應：{"error": "...", "kind": "..."}
type Body struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(StatusCode(err))
	_ = json.NewEncoder(w).Encode(Body{Error: err.Error(), Kind: string(errs.KindOf(err))})
}

// Log 5xx 記 Error；408 / 409 / 429 記 Warn；其他 4xx 是正常的業務拒絕，不記。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch code := StatusCode(err); {
	case code >= 500:
		log.Error(msg, slog.Any("err", err), slog.Int("status", code))
	case code == http.StatusRequestTimeout, code == http.StatusConflict, code == http.StatusTooManyRequests:
		log.Warn(msg, slog.Any("err", err), slog.Int("status", code))
	}
}

// Fail Log 之後寫回。
func Fail(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	Log(log, msg, err)
	Errs(w, err)
}
