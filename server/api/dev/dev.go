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

// Package dev 提供可回放（replayable）的開獎工具：以 seed 或 PRNG snapshot 起跑，
// 逐局回傳開獎結果與前後 snapshot，方便重現單一局或驗證統計。
package dev

import (
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/lottolab"
	"github.com/zintix-labs/lottolab/corefmt"
	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/recorder"
	"github.com/zintix-labs/lottolab/rules"
	"github.com/zintix-labs/lottolab/server/httperr"
	"github.com/zintix-labs/lottolab/server/netsvr"
	"github.com/zintix-labs/lottolab/stats"
)

const (
	maxRoundsReplay = 5_000     // 逐局回傳，payload 會隨局數線性成長
	maxRoundsSim    = 3_000_000 // dev 工具，同步執行
	maxTickets      = 1_000
	maxBody         = 1 << 16
)

// devRequest Seed 與 Snap 擇一；兩者都有時以 Snap 為準。
//   - Seed：int64 字串，空字串則以 crypto/rand 產生。
//   - Snap：base64url 編碼的 PRNG snapshot（取自上一次回應的 snap_before / snap_after）。
type devRequest struct {
	Rounds  int    `json:"rounds"`
	Tickets int    `json:"tickets"`
	Seed    string `json:"seed"`
	Snap    string `json:"snap"`
}

// DevRound 單局結果。SnapBefore 可直接帶回 /dev/rounds 重現這一局。
type DevRound struct {
	Round      int               `json:"round"`
	SnapBefore string            `json:"snap_before"`
	SnapAfter  string            `json:"snap_after"`
	Result     engine.DrawResult `json:"result"`
}

type DevRoundsReport struct {
	Seed     int64              `json:"seed"`
	Snap     string             `json:"snap"`
	Tickets  int                `json:"tickets"`
	Results  []DevRound         `json:"results"`
	Stats    *stats.RoundReport `json:"stats"`
	Restored bool               `json:"restored"`
}

type DevSimReport struct {
	Seed     int64              `json:"seed"`
	Snap     string             `json:"snap"`
	SnapEnd  string             `json:"snap_end"`
	Tickets  int                `json:"tickets"`
	Stats    *stats.RoundReport `json:"stats"`
	Restored bool               `json:"restored"`
}

// DevMeta 規則與理論值，供 Dev Page 顯示。
type DevMeta struct {
	Rule      *rules.Setting `json:"rule"`
	HitProb   []float64      `json:"hit_prob"`
	TheoryRTP float64        `json:"theory_rtp"`
}

type Handler struct {
	lab *lottolab.Lab
	log *slog.Logger
}

func NewHandler(lab *lottolab.Lab, log *slog.Logger) (*Handler, error) {
	if lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{lab: lab, log: log}, nil
}

// Register 註冊 dev routes。
//
//	GET  /dev         Dev Page
//	GET  /favicon.svg
//	GET  /dev/meta    規則與理論命中機率
//	POST /dev/rounds  逐局回放（含 snapshot）
//	POST /dev/sim     只回統計
func (h *Handler) Register(svr netsvr.NetRouter) {
	svr.Get("/dev", devPage)
	svr.Get("/favicon.svg", favicon)
	svr.Get("/dev/meta", h.Meta)
	svr.Post("/dev/rounds", h.Rounds)
	svr.Post("/dev/sim", h.Sim)
}

func devPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(devPageHTML))
}

func favicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(faviconSVG))
}

func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	rule := h.lab.Rule()
	prob := stats.HitProbabilities(rule.PoolSize, rule.PickCount)
	prize := make([]int, rule.PickCount+1)
	for k := range prize {
		prize[k] = rule.Prize(k)
	}
	writeJSON(w, DevMeta{
		Rule:      rule,
		HitProb:   prob,
		TheoryRTP: stats.TheoryRTP(prob, prize, rule.TicketPrice),
	})
}

// Rounds 逐局開獎並回傳每局的 snapshot。
func (h *Handler) Rounds(w http.ResponseWriter, r *http.Request) {
	req, err := decode(w, r, maxRoundsReplay)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	m, seed, restored, err := h.machine(req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rec, err := recorder.NewRoundRecorder(h.lab.Rule(), req.Tickets, 0)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	start, err := snapString(m)
	if err != nil {
		httperr.Fail(w, h.log, "dev snapshot failed", err)
		return
	}
	out := &DevRoundsReport{
		Seed:     seed,
		Snap:     start,
		Tickets:  req.Tickets,
		Results:  make([]DevRound, 0, req.Rounds),
		Restored: restored,
	}
	before := start
	for i := 0; i < req.Rounds; i++ {
		res, err := m.Play(req.Tickets)
		if err != nil {
			httperr.Fail(w, h.log, "dev play failed", err)
			return
		}
		after, err := snapString(m)
		if err != nil {
			httperr.Fail(w, h.log, "dev snapshot failed", err)
			return
		}
		rec.Record(res)
		out.Results = append(out.Results, DevRound{Round: i + 1, SnapBefore: before, SnapAfter: after, Result: res})
		before = after
	}
	out.Stats = rec.Done()
	writeJSON(w, out)
}

// Sim 與 Rounds 相同的起點規則，但只回統計。
func (h *Handler) Sim(w http.ResponseWriter, r *http.Request) {
	req, err := decode(w, r, maxRoundsSim)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	m, seed, restored, err := h.machine(req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rec, err := recorder.NewRoundRecorder(h.lab.Rule(), req.Tickets, 0)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	start, err := snapString(m)
	if err != nil {
		httperr.Fail(w, h.log, "dev snapshot failed", err)
		return
	}
	for i := 0; i < req.Rounds; i++ {
		res, err := m.Play(req.Tickets)
		if err != nil {
			httperr.Fail(w, h.log, "dev play failed", err)
			return
		}
		rec.Record(res)
	}
	end, err := snapString(m)
	if err != nil {
		httperr.Fail(w, h.log, "dev snapshot failed", err)
		return
	}
	writeJSON(w, &DevSimReport{
		Seed:     seed,
		Snap:     start,
		SnapEnd:  end,
		Tickets:  req.Tickets,
		Stats:    rec.Done(),
		Restored: restored,
	})
}

// machine 建立機台；有 Snap 時以 Snap 還原 PRNG。
func (h *Handler) machine(req *devRequest) (*lottolab.Machine, int64, bool, error) {
	snap := strings.TrimSpace(req.Snap)
	seed, err := resolveSeed(req.Seed)
	if err != nil {
		return nil, 0, false, err
	}
	m, err := h.lab.NewMachineWithSeed(seed)
	if err != nil {
		return nil, 0, false, err
	}
	if snap == "" {
		return m, seed, false, nil
	}
	b, err := corefmt.DecodeSnap(snap)
	if err != nil {
		return nil, 0, false, err
	}
	if err := m.Restore(b); err != nil {
		return nil, 0, false, errs.NewWarn("invalid snap: " + err.Error())
	}
	h.log.Debug("dev machine restored", slog.String("snap", corefmt.EncodeHex(b)))
	return m, seed, true, nil
}

func decode(w http.ResponseWriter, r *http.Request, maxRounds int) (*devRequest, error) {
	req := new(devRequest)
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.NewWarn("invalid json: " + err.Error())
	}
	if req.Tickets == 0 {
		req.Tickets = 1
	}
	if req.Rounds < 1 || req.Rounds > maxRounds {
		return nil, errs.Warnf("rounds must be between 1 and %d", maxRounds)
	}
	if req.Tickets < 1 || req.Tickets > maxTickets {
		return nil, errs.Warnf("tickets must be between 1 and %d", maxTickets)
	}
	return req, nil
}

func snapString(m *lottolab.Machine) (string, error) {
	b, err := m.Snapshot()
	if err != nil {
		return "", err
	}
	return corefmt.EncodeSnap(b), nil
}

// resolveSeed 空字串自動產生；否則必須為 int64。
func resolveSeed(seed string) (int64, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return randomSeed()
	}
	v, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return 0, errs.NewWarn("seed must be int64")
	}
	return v, nil
}

// randomSeed crypto/rand 產生 [0, MaxInt64)。
func randomSeed() (int64, error) {
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.NewWarn("seed generate failed")
	}
	return rnd.Int64(), nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

//go:embed favicon.svg
var faviconSVG string
