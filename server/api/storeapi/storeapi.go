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

// Package storeapi 以 REST JSON 暴露 store.Store，格式與 gateway.Client 對齊。
//
//	GET  /players[?name=]  → []Player
//	POST /players          ← Player  → 201 Player
//	GET  /players/{id}     → Player
//	PUT  /players/{id}     ← Player  → Player
//	GET  /operator         → Operator
//	PUT  /operator         ← Operator → Operator
package storeapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/server/httperr"
	"github.com/zintix-labs/lottolab/server/netsvr"
	"github.com/zintix-labs/lottolab/store"
)

const maxBody = 8 << 20 // 8MB；營運方文件會隨售出彩券持續成長

type Handler struct {
	st  store.Store
	log *slog.Logger
}

func NewHandler(st store.Store, log *slog.Logger) (*Handler, error) {
	if st == nil {
		return nil, errs.NewFatal("store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{st: st, log: log}, nil
}

// Register 掛上所有儲存端路由。
func (h *Handler) Register(r netsvr.NetRouter) {
	r.Get("/players", h.ListPlayers)
	r.Post("/players", h.CreatePlayer)
	r.Get("/players/{id}", h.GetPlayer)
	r.Put("/players/{id}", h.UpdatePlayer)
	r.Get("/operator", h.GetOperator)
	r.Put("/operator", h.UpdateOperator)
}

// ListPlayers 帶 name 時只回傳同名玩家（0 或 1 筆）。
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if name, ok := r.URL.Query()["name"]; ok {
		p, err := h.st.GetPlayerByName(ctx, first(name))
		if err != nil {
			httperr.Fail(w, h.log, "get player by name failed", err)
			return
		}
		out := []engine.Player{}
		if p != nil {
			out = append(out, *p)
		}
		writeJSON(w, http.StatusOK, out)
		return
	}
	list, err := h.st.ListPlayers(ctx)
	if err != nil {
		httperr.Fail(w, h.log, "list players failed", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var p engine.Player
	if err := decode(w, r, &p); err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := h.st.CreatePlayer(r.Context(), p); err != nil {
		httperr.Fail(w, h.log, "create player failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	p, err := h.st.GetPlayer(r.Context(), id)
	if err != nil {
		httperr.Fail(w, h.log, "get player failed", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	var p engine.Player
	if err := decode(w, r, &p); err != nil {
		httperr.Errs(w, err)
		return
	}
	p.ID = id
	if err := h.st.UpdatePlayer(r.Context(), id, p); err != nil {
		httperr.Fail(w, h.log, "update player failed", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) GetOperator(w http.ResponseWriter, r *http.Request) {
	op, err := h.st.GetOperator(r.Context())
	if err != nil {
		httperr.Fail(w, h.log, "get operator failed", err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *Handler) UpdateOperator(w http.ResponseWriter, r *http.Request) {
	var op engine.Operator
	if err := decode(w, r, &op); err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := h.st.UpdateOperator(r.Context(), op); err != nil {
		httperr.Fail(w, h.log, "update operator failed", err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func pathID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Warnf("id must be integer: %q", raw)
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.NewWarn("invalid json: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
