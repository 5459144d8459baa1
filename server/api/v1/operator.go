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

package v1

import (
	"log/slog"
	"net/http"

	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/gateway"
	"github.com/zintix-labs/lottolab/server/httperr"
	"github.com/zintix-labs/lottolab/store"
)

// OperatorHandler 營運方後台：營運方帳戶與所有玩家。
type OperatorHandler struct {
	st  store.Store // nil 代表使用遠端 gateway，無法列出玩家
	gw  gateway.Gateway
	log *slog.Logger
}

type DashboardResponse struct {
	Operator engine.Operator `json:"operator"`
	Players  []engine.Player `json:"players"`
}

func NewOperatorHandler(st store.Store, gw gateway.Gateway, log *slog.Logger) (*OperatorHandler, error) {
	if gw == nil {
		if st == nil {
			return nil, errs.NewFatal("store or gateway is required")
		}
		gw = st
	}
	if log == nil {
		log = slog.Default()
	}
	return &OperatorHandler{st: st, gw: gw, log: log}, nil
}

func (h *OperatorHandler) Players(w http.ResponseWriter, r *http.Request) {
	if h.st == nil {
		writeJSON(w, http.StatusNotImplemented, httperr.Body{Error: "player listing requires a local store"})
		return
	}
	op, err := h.gw.GetOperator(r.Context())
	if err != nil {
		httperr.Fail(w, h.log, "load operator failed", err)
		return
	}
	players, err := h.st.ListPlayers(r.Context())
	if err != nil {
		httperr.Fail(w, h.log, "list players failed", err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{Operator: op, Players: players})
}
