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
	"strconv"

	"github.com/zintix-labs/lottolab"
	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/server/httperr"
	"github.com/zintix-labs/lottolab/server/svrcfg"
	"github.com/zintix-labs/lottolab/stats"
)

type SimHandler struct {
	lab *lottolab.Lab
	lim svrcfg.SimConfig
	log *slog.Logger
}

func NewSimHandler(lab *lottolab.Lab, lim svrcfg.SimConfig, log *slog.Logger) (*SimHandler, error) {
	if lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &SimHandler{lab: lab, lim: lim, log: log}, nil
}

// SimRequest GET 以 query、POST 以 JSON 帶入；workers <= 1 走單線模擬。
type SimRequest struct {
	Rounds  int    `json:"rounds"`
	Tickets int    `json:"tickets"`
	Workers int    `json:"workers"`
	Seed    *int64 `json:"seed,omitempty"`
}

type SimResponse struct {
	Stats    *stats.RoundReport `json:"stats"`
	Seed     int64              `json:"seed"`
	UsedTime int64              `json:"used_ms"`
}

func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	req, err := parseSimRequest(w, r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	// 業務檢驗
	if req.Tickets == 0 {
		req.Tickets = 1
	}
	if req.Workers <= 0 {
		req.Workers = 1
	}
	if req.Rounds < 1 || req.Rounds > sh.lim.MaxRounds {
		httperr.Errs(w, errs.Warnf("rounds must be between 1 and %d", sh.lim.MaxRounds))
		return
	}
	if req.Tickets < 1 || req.Tickets > 1000 {
		httperr.Errs(w, errs.NewWarn("tickets must be between 1 and 1000"))
		return
	}
	if req.Workers > sh.lim.MaxWorker {
		httperr.Errs(w, errs.Warnf("workers must be between 1 and %d", sh.lim.MaxWorker))
		return
	}
	if req.Seed == nil {
		v, err := core.NewSeed()
		if err != nil {
			httperr.Fail(w, sh.log, "seed generate failed", errs.Wrap(err, "seed generate failed"))
			return
		}
		req.Seed = &v
	}

	sim, err := sh.lab.NewSimulatorWithSeed(*req.Seed)
	if err != nil {
		httperr.Fail(w, sh.log, "build simulator failed", errs.Wrap(err, "build simulator err"))
		return
	}
	var (
		st   *stats.RoundReport
		used int64
	)
	if req.Workers == 1 {
		rep, d, err := sim.Sim(req.Rounds, req.Tickets, false)
		if err != nil {
			httperr.Fail(w, sh.log, "simulate failed", errs.Wrap(err, "simulate err"))
			return
		}
		st, used = rep, d.Milliseconds()
	} else {
		// 總局數平均分給各 worker，餘數捨去
		per := max(1, req.Rounds/req.Workers)
		rep, d, err := sim.SimMP(per, req.Tickets, req.Workers, false)
		if err != nil {
			httperr.Fail(w, sh.log, "simulate failed", errs.Wrap(err, "simulate err"))
			return
		}
		st, used = rep, d.Milliseconds()
	}
	writeJSON(w, http.StatusOK, SimResponse{Stats: st, Seed: *req.Seed, UsedTime: used})
}

// SimPlayersRequest 每位玩家帶 balance 進場，最多玩 rounds 局。
type SimPlayersRequest struct {
	Players int    `json:"players"`
	Balance int    `json:"balance"`
	Tickets int    `json:"tickets"`
	Rounds  int    `json:"rounds"`
	Seed    *int64 `json:"seed,omitempty"`
}

type SimPlayersResponse struct {
	Stats     *stats.RoundReport      `json:"stats"`
	Estimator *stats.EstimatorPlayers `json:"est"`
	Seed      int64                   `json:"seed"`
	UsedTime  int64                   `json:"used_ms"`
}

func (sh *SimHandler) SimPlayers(w http.ResponseWriter, r *http.Request) {
	req := new(SimPlayersRequest)
	if err := decodeJSON(w, r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	// 業務邏輯判斷
	if req.Tickets == 0 {
		req.Tickets = 1
	}
	if req.Balance == 0 {
		req.Balance = sh.lab.Rule().InitialBalance
	}
	if req.Players < 1 || req.Players > 100000 {
		httperr.Errs(w, errs.NewWarn("players must be between 1 and 100,000"))
		return
	}
	if req.Rounds < 1 || req.Rounds > 15000 {
		httperr.Errs(w, errs.NewWarn("rounds must be between 1 and 15,000"))
		return
	}
	if req.Players*req.Rounds > sh.lim.MaxRounds {
		httperr.Errs(w, errs.Warnf("players * rounds must be at most %d", sh.lim.MaxRounds))
		return
	}
	if req.Seed == nil {
		v, err := core.NewSeed()
		if err != nil {
			httperr.Fail(w, sh.log, "seed generate failed", errs.Wrap(err, "seed generate failed"))
			return
		}
		req.Seed = &v
	}
	sim, err := sh.lab.NewSimulatorWithSeed(*req.Seed)
	if err != nil {
		httperr.Fail(w, sh.log, "build simulator failed", errs.Wrap(err, "build simulator err"))
		return
	}
	st, est, used, err := sim.SimPlayers(sh.lim.MaxWorker, req.Players, req.Balance, req.Tickets, req.Rounds, false)
	if err != nil {
		httperr.Fail(w, sh.log, "simulate players failed", errs.Wrap(err, "simulator err"))
		return
	}
	writeJSON(w, http.StatusOK, SimPlayersResponse{Stats: st, Estimator: est, Seed: *req.Seed, UsedTime: used.Milliseconds()})
}

func parseSimRequest(w http.ResponseWriter, r *http.Request) (*SimRequest, error) {
	req := new(SimRequest)
	if r.Method == http.MethodPost {
		if err := decodeJSON(w, r, req); err != nil {
			return nil, err
		}
		return req, nil
	}
	q := r.URL.Query()
	ints := []struct {
		key string
		dst *int
	}{
		{"rounds", &req.Rounds},
		{"tickets", &req.Tickets},
		{"workers", &req.Workers},
	}
	for _, it := range ints {
		s := q.Get(it.key)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errs.Warnf("%s must be integer", it.key)
		}
		*it.dst = v
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("seed must be int64")
		}
		req.Seed = &v
	}
	return req, nil
}
