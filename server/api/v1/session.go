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

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/server/httperr"
	"github.com/zintix-labs/lottolab/server/netsvr"
	"github.com/zintix-labs/lottolab/session"
)

// SessionHandler 把前端的意圖轉給對應的 session.Game。
//
//	POST   /sessions                 → 建立
//	GET    /sessions/{sid}           → 目前狀態
//	POST   /sessions/{sid}/name      ← {name}
//	POST   /sessions/{sid}/enter
//	POST   /sessions/{sid}/tickets   ← {count?}
//	POST   /sessions/{sid}/draw
//	POST   /sessions/{sid}/reset
//	DELETE /sessions/{sid}
type SessionHandler struct {
	mgr *session.Manager
	log *slog.Logger
}

type SessionResponse struct {
	SessionID string        `json:"session_id"`
	State     session.State `json:"state"`
}

func NewSessionHandler(mgr *session.Manager, log *slog.Logger) (*SessionHandler, error) {
	if mgr == nil {
		return nil, errs.NewFatal("session manager is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &SessionHandler{mgr: mgr, log: log}, nil
}

func (h *SessionHandler) Register(r netsvr.NetRouter) {
	r.Post("/sessions", h.Create)
	r.Get("/sessions/{sid}", h.Get)
	r.Delete("/sessions/{sid}", h.Delete)
	r.Post("/sessions/{sid}/name", h.UpdateName)
	r.Post("/sessions/{sid}/enter", h.Enter)
	r.Post("/sessions/{sid}/tickets", h.BuyTickets)
	r.Post("/sessions/{sid}/draw", h.StartDraw)
	r.Post("/sessions/{sid}/reset", h.Reset)
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, g, err := h.mgr.Create()
	if err != nil {
		httperr.Fail(w, h.log, "create session failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: id, State: g.Snapshot()})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, g, ok := h.game(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, State: g.Snapshot()})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sid")
	if !h.mgr.Delete(id) {
		httperr.Errs(w, errs.ErrNotFound.WithExtra("session "+id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	id, g, ok := h.game(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, State: g.UpdateName(body.Name)})
}

func (h *SessionHandler) Enter(w http.ResponseWriter, r *http.Request) {
	id, g, ok := h.game(w, r)
	if !ok {
		return
	}
	st, err := g.Enter(r.Context())
	h.reply(w, id, st, err)
}

// BuyTickets count 省略時沿用目前的張數。
func (h *SessionHandler) BuyTickets(w http.ResponseWriter, r *http.Request) {
	id, g, ok := h.game(w, r)
	if !ok {
		return
	}
	var body struct {
		Count *int `json:"count"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		httperr.Errs(w, err)
		return
	}
	var (
		st  session.State
		err error
	)
	if body.Count != nil {
		st, err = g.BuyTicketsN(*body.Count)
	} else {
		st, err = g.BuyTickets()
	}
	h.reply(w, id, st, err)
}

func (h *SessionHandler) StartDraw(w http.ResponseWriter, r *http.Request) {
	id, g, ok := h.game(w, r)
	if !ok {
		return
	}
	st, err := g.StartDraw()
	h.reply(w, id, st, err)
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, g, ok := h.game(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, State: g.Reset()})
}

func (h *SessionHandler) game(w http.ResponseWriter, r *http.Request) (string, *session.Game, bool) {
	id := chi.URLParam(r, "sid")
	g, ok := h.mgr.Get(id)
	if !ok {
		httperr.Errs(w, errs.ErrNotFound.WithExtra("session "+id))
		return id, nil, false
	}
	return id, g, true
}

// reply 業務拒絕（4xx）不記 log；其餘交給 httperr 分級。
func (h *SessionHandler) reply(w http.ResponseWriter, id string, st session.State, err error) {
	if err != nil {
		httperr.Fail(w, h.log, "session intent failed", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, State: st})
}
