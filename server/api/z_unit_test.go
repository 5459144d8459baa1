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

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/lottolab"
	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/server/api"
	"github.com/zintix-labs/lottolab/server/netsvr"
	"github.com/zintix-labs/lottolab/server/svrcfg"
	"github.com/zintix-labs/lottolab/session"
	"github.com/zintix-labs/lottolab/stats"
	"github.com/zintix-labs/lottolab/store"
)

type sessionReply struct {
	SessionID string        `json:"session_id"`
	State     session.State `json:"state"`
}

type errReply struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	lab, err := lottolab.New(core.Default(), nil)
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	mem := store.NewMemory()
	sc := &svrcfg.SvrCfg{Log: log, Lab: lab, Store: mem, Sim: svrcfg.SimConfig{MaxRounds: 10_000, MaxWorker: 4}}
	if err := sc.Vaild(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	// 不掛 Persister：Enter 的建立玩家是同步寫入，足夠驗證流程
	mgr, err := session.NewManager(lab.Rule(), lab.PRNGFactory(), sc.Gateway, nil, log, sc.Session)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	svr := netsvr.NewChiServer(":0")
	if err := api.RegisterRoutes(svr, sc, mgr); err != nil {
		t.Fatalf("register: %v", err)
	}
	ts := httptest.NewServer(svr.Handler())
	t.Cleanup(ts.Close)
	return ts, mem
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthzAndRequestID(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(b) != "ok" {
		t.Fatalf("unexpected healthz %d %q", resp.StatusCode, b)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	_, _ = http.Get(ts.URL + "/healthz")
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(b), "lottolab_") {
		t.Fatalf("unexpected metrics output %d", resp.StatusCode)
	}
}

func TestSessionFlow(t *testing.T) {
	ts, mem := newTestServer(t)
	base := ts.URL + "/v1/sessions"

	var created sessionReply
	if code := do(t, http.MethodPost, base, nil, &created); code != http.StatusCreated {
		t.Fatalf("create status %d", code)
	}
	if created.SessionID == "" || !created.State.CanBuyTickets || created.State.TicketsToBuy != 1 {
		t.Fatalf("unexpected initial state %+v", created)
	}
	sid := base + "/" + created.SessionID

	var e errReply
	if code := do(t, http.MethodPost, sid+"/enter", nil, &e); code != http.StatusBadRequest || e.Kind != "missing_player_name" {
		t.Fatalf("enter without name: %d %+v", code, e)
	}

	var st sessionReply
	do(t, http.MethodPost, sid+"/name", map[string]string{"name": "alice"}, &st)
	if st.State.Player.Name != "alice" {
		t.Fatalf("name not set: %+v", st.State.Player)
	}
	if code := do(t, http.MethodPost, sid+"/enter", nil, &st); code != http.StatusOK || st.State.Player.ID == 0 {
		t.Fatalf("enter: %d %+v", code, st.State.Player)
	}

	if code := do(t, http.MethodPost, sid+"/draw", nil, &e); code != http.StatusConflict {
		t.Fatalf("draw before buy: %d %+v", code, e)
	}
	if code := do(t, http.MethodPost, sid+"/tickets", map[string]int{"count": 21}, &e); code != http.StatusPaymentRequired {
		t.Fatalf("overspend: %d %+v", code, e)
	}
	if code := do(t, http.MethodPost, sid+"/tickets", map[string]int{"count": 0}, &e); code != http.StatusBadRequest {
		t.Fatalf("zero tickets: %d %+v", code, e)
	}
	if code := do(t, http.MethodPost, sid+"/tickets", map[string]int{"count": 2}, &st); code != http.StatusOK {
		t.Fatalf("buy: %d", code)
	}
	if st.State.Player.Balance != 9000 || st.State.Phase != engine.PhaseAwaitingDraw || len(st.State.Player.Tickets) != 2 {
		t.Fatalf("unexpected state after buy %+v", st.State)
	}
	if code := do(t, http.MethodPost, sid+"/tickets", nil, &e); code != http.StatusConflict || e.Kind != "gate_closed" {
		t.Fatalf("second buy: %d %+v", code, e)
	}
	if code := do(t, http.MethodPost, sid+"/draw", nil, &st); code != http.StatusOK {
		t.Fatalf("draw: %d", code)
	}
	if st.State.RoundResults == nil || len(st.State.DrawnNumbers) != 5 || !st.State.CanBuyTickets {
		t.Fatalf("unexpected state after draw %+v", st.State)
	}

	p, _ := mem.GetPlayerByName(t.Context(), "alice")
	if p == nil || p.ID != st.State.Player.ID {
		t.Fatalf("player not created in store: %+v", p)
	}

	var dash struct {
		Operator engine.Operator `json:"operator"`
		Players  []engine.Player `json:"players"`
	}
	if code := do(t, http.MethodGet, ts.URL+"/v1/operator/players", nil, &dash); code != http.StatusOK || len(dash.Players) != 1 {
		t.Fatalf("dashboard: %d %+v", code, dash)
	}

	if code := do(t, http.MethodDelete, sid, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete: %d", code)
	}
	if code := do(t, http.MethodGet, sid, nil, &e); code != http.StatusNotFound {
		t.Fatalf("get deleted: %d", code)
	}
}

func TestRejectedPurchaseKeepsTicketCount(t *testing.T) {
	ts, _ := newTestServer(t)
	var created sessionReply
	do(t, http.MethodPost, ts.URL+"/v1/sessions", nil, &created)
	sid := ts.URL + "/v1/sessions/" + created.SessionID

	var st sessionReply
	do(t, http.MethodPost, sid+"/name", map[string]string{"name": "ivy"}, &st)
	do(t, http.MethodPost, sid+"/enter", nil, &st)
	if code := do(t, http.MethodPost, sid+"/tickets", map[string]int{"count": 1}, &st); code != http.StatusOK {
		t.Fatalf("buy: %d", code)
	}

	var e errReply
	if code := do(t, http.MethodPost, sid+"/tickets", map[string]int{"count": 5}, &e); code != http.StatusConflict || e.Kind != "gate_closed" {
		t.Fatalf("second buy: %d %+v", code, e)
	}
	do(t, http.MethodGet, sid, nil, &st)
	if st.State.TicketsToBuy != 1 {
		t.Fatalf("rejected buy changed numTicketsToBuy to %d", st.State.TicketsToBuy)
	}
	if code := do(t, http.MethodPost, sid+"/draw", nil, &st); code != http.StatusOK || st.State.RoundResults == nil {
		t.Fatalf("draw after rejected buy: %d", code)
	}
}

func TestSimPlayersEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	var out struct {
		Est  *stats.EstimatorPlayers `json:"est"`
		Seed int64                   `json:"seed"`
	}
	body := map[string]any{"players": 10, "rounds": 50, "seed": 3}
	if code := do(t, http.MethodPost, ts.URL+"/v1/simplayers", body, &out); code != http.StatusOK {
		t.Fatalf("simplayers: %d", code)
	}
	if out.Seed != 3 || out.Est == nil || out.Est.Players != 10 {
		t.Fatalf("unexpected estimate %+v", out.Est)
	}

	// 10,000 局上限下，100 位玩家各 200 局超出總量
	var e errReply
	body = map[string]any{"players": 100, "rounds": 200}
	if code := do(t, http.MethodPost, ts.URL+"/v1/simplayers", body, &e); code != http.StatusBadRequest {
		t.Fatalf("over total limit: %d %+v", code, e)
	}
}

func TestStoreRoutes(t *testing.T) {
	ts, _ := newTestServer(t)
	var out []engine.Player
	if code := do(t, http.MethodGet, ts.URL+"/players?name=nobody", nil, &out); code != http.StatusOK || len(out) != 0 {
		t.Fatalf("lookup: %d %+v", code, out)
	}
	var e errReply
	if code := do(t, http.MethodGet, ts.URL+"/players/42", nil, &e); code != http.StatusNotFound {
		t.Fatalf("missing player: %d", code)
	}
}

func TestSimEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	var out struct {
		Stats *stats.RoundReport `json:"stats"`
		Seed  int64              `json:"seed"`
	}
	body := map[string]any{"rounds": 200, "tickets": 2, "seed": 7}
	if code := do(t, http.MethodPost, ts.URL+"/v1/sim", body, &out); code != http.StatusOK {
		t.Fatalf("sim: %d", code)
	}
	if out.Seed != 7 || out.Stats == nil || out.Stats.Summary.Rounds != 200 || out.Stats.Summary.Tickets != 400 {
		t.Fatalf("unexpected sim output %+v", out.Stats)
	}

	var again struct {
		Stats *stats.RoundReport `json:"stats"`
	}
	do(t, http.MethodGet, ts.URL+"/v1/sim?rounds=200&tickets=2&seed=7", nil, &again)
	if again.Stats == nil || again.Stats.Summary.TotalPrize != out.Stats.Summary.TotalPrize {
		t.Fatalf("same seed must reproduce")
	}

	var e errReply
	if code := do(t, http.MethodPost, ts.URL+"/v1/sim", map[string]int{"rounds": 20_000}, &e); code != http.StatusBadRequest {
		t.Fatalf("over limit: %d", code)
	}
}

func TestDevRoundsReplay(t *testing.T) {
	ts, _ := newTestServer(t)
	type round struct {
		SnapBefore string            `json:"snap_before"`
		Result     engine.DrawResult `json:"result"`
	}
	var first struct {
		Results []round `json:"results"`
	}
	if code := do(t, http.MethodPost, ts.URL+"/dev/rounds", map[string]any{"rounds": 3, "seed": "11"}, &first); code != http.StatusOK || len(first.Results) != 3 {
		t.Fatalf("dev rounds: %d", code)
	}
	var replay struct {
		Results  []round `json:"results"`
		Restored bool    `json:"restored"`
	}
	do(t, http.MethodPost, ts.URL+"/dev/rounds", map[string]any{"rounds": 1, "snap": first.Results[2].SnapBefore}, &replay)
	if !replay.Restored || len(replay.Results) != 1 {
		t.Fatalf("replay failed %+v", replay)
	}
	want, got := first.Results[2].Result.DrawnNumbers, replay.Results[0].Result.DrawnNumbers
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("replayed draw %v != %v", got, want)
		}
	}
}
