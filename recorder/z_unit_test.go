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

package recorder

import (
	"math"
	"testing"

	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/rules"
)

func winRound() engine.DrawResult {
	return engine.DrawResult{Tickets: 2, HitCounts: map[int]int{3: 2}, TotalPrize: 1000}
}

func loseRound() engine.DrawResult {
	return engine.DrawResult{Tickets: 2, HitCounts: map[int]int{0: 1, 1: 1}, TotalPrize: 0}
}

func TestNewRoundRecorderValidation(t *testing.T) {
	if _, err := NewRoundRecorder(nil, 1, 0); err == nil {
		t.Fatalf("nil rule must fail")
	}
	if _, err := NewRoundRecorder(rules.Default(), 0, 0); err == nil {
		t.Fatalf("zero tickets must fail")
	}
	if _, err := NewRoundRecorder(rules.Default(), 1, -1); err == nil {
		t.Fatalf("negative balance must fail")
	}
}

func TestRecordAndDone(t *testing.T) {
	rec, err := NewRoundRecorder(rules.Default(), 2, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec.Record(winRound())
	rec.Record(loseRound())

	rep := rec.Done()
	if rep.Summary.Rounds != 2 || rep.Summary.Tickets != 4 || rep.Summary.TotalBet != 2000 {
		t.Fatalf("unexpected summary %+v", rep.Summary)
	}
	if rep.Summary.WinTickets != 2 || rep.Summary.NoWinRounds != 1 {
		t.Fatalf("unexpected win counts %+v", rep.Summary)
	}
	if math.Abs(rep.Summary.RTP-0.5) > 1e-12 {
		t.Fatalf("RTP got %.6f", rep.Summary.RTP)
	}
	// 單局倍數 1 與 0：樣本變異數 0.5
	if math.Abs(rep.Summary.Std-math.Sqrt(0.5)) > 1e-12 {
		t.Fatalf("Std got %.6f", rep.Summary.Std)
	}
	total := 0
	for _, c := range rep.Hits.Count {
		total += c
	}
	if total != rep.Summary.Tickets || rep.Hits.Count[3] != 2 || rep.Hits.Count[1] != 1 {
		t.Fatalf("hit tally %v", rep.Hits.Count)
	}
	if rep.Hits.Prize[5] != 5000 || rep.Hits.Prize[1] != 0 {
		t.Fatalf("prize column %v", rep.Hits.Prize)
	}

	// 營運方：收入 2000，抽成 2 * 50，付出 1000
	op := rep.Operator
	if op.Revenue != 2000 || op.PaidOut != 1000 || op.Margin != 100 || op.BalanceDelta != 1100 {
		t.Fatalf("operator %+v", op)
	}
	if rep.Player != nil {
		t.Fatalf("player report only in player mode")
	}
}

func TestOperatorMatchesEngine(t *testing.T) {
	rule := rules.Default()
	rec, _ := NewRoundRecorder(rule, 2, 0)
	eng, _ := engine.New(rule, &fixedSampler{draws: [][]int{
		{1, 2, 3, 4, 5}, {1, 2, 3, 10, 11}, // tickets
		{1, 2, 3, 20, 21}, // drawn
	}})

	player := engine.NewPlayer(1, "p", rule)
	operator := engine.NewOperator()
	buy, err := eng.PurchaseTickets(player, operator, 2, rule.TicketPrice, true)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	st, err := eng.Draw(buy.Player, buy.Operator, 2, buy.GateOpen)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	rec.Record(st.Result)
	rep := rec.Done()
	if rep.Operator.BalanceDelta != st.Operator.Balance-operator.Balance {
		t.Fatalf("recorder delta %d engine delta %d", rep.Operator.BalanceDelta, st.Operator.Balance)
	}
}

func TestRecordWithPlayer(t *testing.T) {
	rec, _ := NewRoundRecorder(rules.Default(), 2, 1500)
	if leave := rec.RecordWithPlayer(loseRound()); !leave {
		t.Fatalf("balance 500 < round bet must leave")
	}
	if rec.Player.Balance != 500 || !rec.Player.Bust || rec.Player.MinBalance != 500 {
		t.Fatalf("player %+v", rec.Player)
	}
	if leave := rec.RecordWithPlayer(winRound()); !leave || rec.Basic.Rounds != 1 {
		t.Fatalf("busted player must not record more rounds")
	}

	rich, _ := NewRoundRecorder(rules.Default(), 2, 1000)
	big := engine.DrawResult{Tickets: 2, HitCounts: map[int]int{4: 1, 5: 1}, TotalPrize: 6000}
	if leave := rich.RecordWithPlayer(big); !leave {
		t.Fatalf("cashout must leave")
	}
	rep := rich.Done()
	if rep.Player == nil || !rep.Player.Cashout || rep.Player.Alive || rep.Player.MaxBalance != 6000 || rep.Player.Rounds != 1 {
		t.Fatalf("player report %+v", rep.Player)
	}
}

func TestMergeRoundRecorder(t *testing.T) {
	a, _ := NewRoundRecorder(rules.Default(), 2, 0)
	b, _ := NewRoundRecorder(rules.Default(), 2, 0)
	a.Record(winRound())
	b.Record(loseRound())
	b.Record(winRound())

	m, err := MergeRoundRecorder([]*RoundRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Basic.Rounds != 3 || m.Basic.TotalPrize != 2000 || m.Hits[3] != 4 || m.Operator.Margin != 200 {
		t.Fatalf("merged %+v %v %+v", m.Basic, m.Hits, m.Operator)
	}

	c, _ := NewRoundRecorder(rules.Default(), 3, 0)
	if _, err := MergeRoundRecorder([]*RoundRecorder{a, c}); err == nil {
		t.Fatalf("different tickets per round must fail")
	}
	if _, err := MergeRoundRecorder(nil); err == nil {
		t.Fatalf("empty merge must fail")
	}
}

type fixedSampler struct {
	draws [][]int
	i     int
}

func (f *fixedSampler) Distinct(count, maxValue int) []int {
	out := f.draws[f.i]
	f.i++
	return out
}
