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

package lottolab

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/rules"
	"github.com/zintix-labs/lottolab/stats"
)

func newLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := New(nil, nil)
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	return lab
}

func TestSimSameSeedSameReport(t *testing.T) {
	lab := newLab(t)
	a, _ := lab.NewSimulatorWithSeed(42)
	b, _ := lab.NewSimulatorWithSeed(42)

	ra, _, err := a.Sim(2000, 3, false)
	if err != nil {
		t.Fatalf("sim a: %v", err)
	}
	rb, _, err := b.Sim(2000, 3, false)
	if err != nil {
		t.Fatalf("sim b: %v", err)
	}
	if !reflect.DeepEqual(ra.Summary, rb.Summary) || !reflect.DeepEqual(ra.Hits, rb.Hits) || !reflect.DeepEqual(ra.Operator, rb.Operator) {
		t.Fatalf("same seed produced different reports:\n%+v\n%+v", ra.Summary, rb.Summary)
	}

	c, _ := lab.NewSimulatorWithSeed(43)
	rc, _, _ := c.Sim(2000, 3, false)
	if reflect.DeepEqual(ra.Hits.Count, rc.Hits.Count) {
		t.Fatalf("different seeds produced identical hit tallies")
	}
}

func TestSimHitTally(t *testing.T) {
	lab := newLab(t)
	s, _ := lab.NewSimulatorWithSeed(7)
	rep, _, err := s.Sim(5000, 2, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	total := 0
	for _, c := range rep.Hits.Count {
		total += c
	}
	if total != 5000*2 || rep.Summary.Tickets != total {
		t.Fatalf("hit tally %d, tickets %d", total, rep.Summary.Tickets)
	}
	if rep.Summary.TotalBet != 5000*2*lab.Rule().TicketPrice {
		t.Fatalf("total bet %d", rep.Summary.TotalBet)
	}
	// 2 hits 理論機率約 10.4%
	if math.Abs(rep.Hits.Freq[2]-rep.Hits.Theory[2]) > 0.02 {
		t.Fatalf("2 hits freq %.4f far from theory %.4f", rep.Hits.Freq[2], rep.Hits.Theory[2])
	}
}

func TestSimMatchesMachineOperator(t *testing.T) {
	lab := newLab(t)
	s, _ := lab.NewSimulatorWithSeed(11)
	rep, _, err := s.Sim(300, 4, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if got := s.machines[0].OperatorBalance(); got != rep.Operator.BalanceDelta {
		t.Fatalf("machine operator %d, report delta %d", got, rep.Operator.BalanceDelta)
	}
}

func TestSimMPDeterministicAndMerged(t *testing.T) {
	lab := newLab(t)
	a, _ := lab.NewSimulatorWithSeed(99)
	b, _ := lab.NewSimulatorWithSeed(99)
	ra, _, err := a.SimMP(500, 2, 4, false)
	if err != nil {
		t.Fatalf("simmp: %v", err)
	}
	rb, _, _ := b.SimMP(500, 2, 4, false)
	if ra.Summary.Rounds != 2000 || ra.Summary.Tickets != 4000 {
		t.Fatalf("merged rounds %d tickets %d", ra.Summary.Rounds, ra.Summary.Tickets)
	}
	if !reflect.DeepEqual(ra.Hits.Count, rb.Hits.Count) || ra.Summary.TotalPrize != rb.Summary.TotalPrize {
		t.Fatalf("SimMP not reproducible")
	}
}

func TestSimPlayers(t *testing.T) {
	lab := newLab(t)
	s, _ := lab.NewSimulatorWithSeed(5)
	rep, est, _, err := s.SimPlayers(2, 50, 5000, 2, 200, false)
	if err != nil {
		t.Fatalf("sim players: %v", err)
	}
	if rep.Summary.Rounds == 0 || rep.Player != nil {
		t.Fatalf("unexpected aggregate %+v", rep.Summary)
	}
	sum := est.SessionStat.Bust.Hat + est.SessionStat.Cashout.Hat + est.SessionStat.Alive.Hat
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("session outcomes sum to %.6f", sum)
	}

	if _, _, _, err := s.SimPlayers(1, 1, 100, 2, 10, false); err == nil {
		t.Fatalf("balance below one round must fail")
	}
}

func TestSimPlayersReproducible(t *testing.T) {
	lab := newLab(t)
	run := func() *stats.EstimatorPlayers {
		s, _ := lab.NewSimulatorWithSeed(21)
		_, est, _, err := s.SimPlayers(3, 30, 3000, 1, 100, false)
		if err != nil {
			t.Fatalf("sim players: %v", err)
		}
		return est
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a.SessionStat, b.SessionStat) || !reflect.DeepEqual(a.RtpStat, b.RtpStat) {
		t.Fatalf("same seed and workers produced different player estimates")
	}
	if a.Players != 30 {
		t.Fatalf("expected 30 players, got %d", a.Players)
	}
}

func TestSimRejectsBadParams(t *testing.T) {
	lab := newLab(t)
	s, _ := lab.NewSimulatorWithSeed(1)
	if _, _, err := s.Sim(0, 1, false); err == nil {
		t.Fatalf("zero rounds must fail")
	}
	if _, _, err := s.Sim(1, 0, false); err == nil {
		t.Fatalf("zero tickets must fail")
	}
	if _, _, err := s.SimMP(1, 1, 0, false); err == nil {
		t.Fatalf("zero workers must fail")
	}
}

func TestMachineSnapshotRestore(t *testing.T) {
	lab := newLab(t)
	m, _ := lab.NewMachineWithSeed(3)
	snap, err := m.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	first, _ := m.Play(2)
	if err := m.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	again, _ := m.Play(2)
	if !reflect.DeepEqual(first.DrawnNumbers, again.DrawnNumbers) || first.TotalPrize != again.TotalPrize {
		t.Fatalf("restore did not replay the round")
	}
}

func TestNewFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"mini.yaml": {Data: []byte("name: mini\npool_size: 10\npick_count: 3\nticket_price: 2\ninitial_balance: 20\noperator_margin_pct: 0\nprize_table:\n  3: 50\n")},
	}
	lab, err := NewFromFS(core.Default(), fsys, "mini.yaml")
	if err != nil {
		t.Fatalf("from fs: %v", err)
	}
	if lab.Rule().Name != "mini" || lab.Rule().PickCount != 3 {
		t.Fatalf("unexpected rule %+v", lab.Rule())
	}
	if _, err := NewFromFS(nil, fsys, "missing.yaml"); err == nil {
		t.Fatalf("missing file must fail")
	}
	if _, err := New(nil, &rules.Setting{Name: "bad"}); err == nil {
		t.Fatalf("invalid rule must fail")
	}
}

func TestNewFromFile(t *testing.T) {
	lab, err := NewFromFile(nil, "  ")
	if err != nil || lab.Rule().Name != rules.Default().Name {
		t.Fatalf("empty path must use default rule: %v", err)
	}
	path := filepath.Join(t.TempDir(), "mini.yaml")
	data := "name: mini\npool_size: 10\npick_count: 3\nticket_price: 2\ninitial_balance: 20\noperator_margin_pct: 0\nprize_table:\n  3: 50\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	lab, err = NewFromFile(core.Default(), path)
	if err != nil || lab.Rule().Name != "mini" {
		t.Fatalf("from file: %v", err)
	}
}
