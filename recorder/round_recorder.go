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
	"fmt"

	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/rules"
	"github.com/zintix-labs/lottolab/stats"
)

// RoundRecorder 開獎紀錄員
//
// RoundRecorder 負責紀錄每一局的 DrawResult，並透過Done輸出統計報表。
// 每局固定購買 TicketsPerRound 張彩券。
type RoundRecorder struct {
	Rule            *rules.Setting
	TicketsPerRound int
	InitBalance     int
	Basic           *BasicRecord
	Hits            []int // 索引即命中數
	Operator        *OperatorRecord
	Player          *PlayerRecord
	roundBet        int
}

// BasicRecord 基本開獎資料紀錄
type BasicRecord struct {
	TotalBet    int
	TotalPrize  int
	PrizeSqSum  int // 單局總獎金平方和
	Rounds      int
	Tickets     int
	WinTickets  int
	NoWinRounds int
}

// OperatorRecord 營運方帳務紀錄
type OperatorRecord struct {
	Revenue      int
	PaidOut      int
	Margin       int
	BalanceDelta int
}

// PlayerRecord 玩家統計
type PlayerRecord struct {
	leaveLine   int
	InitBalance int
	Balance     int
	MaxBalance  int
	MinBalance  int
	Rounds      int
	Bust        bool
	Cashout     bool
	Alive       bool
}

// NewRoundRecorder initBalance 為玩家模式的起始資金；0 代表不使用玩家模式。
func NewRoundRecorder(rule *rules.Setting, ticketsPerRound int, initBalance int) (*RoundRecorder, error) {
	s := new(RoundRecorder)
	if rule == nil {
		return s, errs.NewFatal("rule setting required")
	}
	if err := rule.Valid(); err != nil {
		return s, err
	}
	if ticketsPerRound < 1 {
		return s, errs.NewFatal(fmt.Sprintf("tickets per round must > 0, got: %d", ticketsPerRound))
	}
	if initBalance < 0 {
		return s, errs.NewFatal(fmt.Sprintf("init balance must not negative integer, got: %d", initBalance))
	}
	// 通過valid
	s.Rule = rule
	s.TicketsPerRound = ticketsPerRound
	s.InitBalance = initBalance
	s.roundBet = ticketsPerRound * rule.TicketPrice
	s.Basic = new(BasicRecord)
	s.Hits = make([]int, rule.PickCount+1)
	s.Operator = new(OperatorRecord)
	s.Player = newPlayerRecord(initBalance)
	return s, nil
}

// MergeRoundRecorder 合併多個 worker 的紀錄（玩家紀錄不合併）。
func MergeRoundRecorder(r []*RoundRecorder) (*RoundRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge round record err : empty input")
	}
	r0 := r[0]
	s, err := NewRoundRecorder(r0.Rule, r0.TicketsPerRound, r0.InitBalance)
	if err != nil {
		return s, err
	}
	s.Player = newPlayerRecord(0) // 合併後不代表任何單一玩家
	for _, v := range r {
		if v.Rule.Name != r0.Rule.Name {
			return s, errs.NewFatal("merge round record err : different rule name")
		}
		if v.TicketsPerRound != r0.TicketsPerRound {
			return s, errs.NewFatal("merge round record err : different tickets per round")
		}
		if v.InitBalance != r0.InitBalance {
			return s, errs.NewFatal("merge round record err : different init balance")
		}
		s.Basic.TotalBet += v.Basic.TotalBet
		s.Basic.TotalPrize += v.Basic.TotalPrize
		s.Basic.PrizeSqSum += v.Basic.PrizeSqSum
		s.Basic.Rounds += v.Basic.Rounds
		s.Basic.Tickets += v.Basic.Tickets
		s.Basic.WinTickets += v.Basic.WinTickets
		s.Basic.NoWinRounds += v.Basic.NoWinRounds

		for k := range v.Hits {
			s.Hits[k] += v.Hits[k]
		}

		s.Operator.Revenue += v.Operator.Revenue
		s.Operator.PaidOut += v.Operator.PaidOut
		s.Operator.Margin += v.Operator.Margin
		s.Operator.BalanceDelta += v.Operator.BalanceDelta
	}
	return s, nil
}

// Record 以單局 DrawResult 更新統計（不含玩家）
func (s *RoundRecorder) Record(res engine.DrawResult) {
	s.recordBasic(res)
	s.recordOperator(res)
}

// RoundBet 每局投注額
func (s *RoundRecorder) RoundBet() int {
	return s.roundBet
}

// RecordWithPlayer 在 Record 的基礎上，進一步更新玩家餘額／離場狀態，並回傳玩家是否停止遊戲。
func (s *RoundRecorder) RecordWithPlayer(res engine.DrawResult) bool {
	if s.Player.Balance < s.roundBet {
		return true
	}
	s.recordBasic(res)
	s.recordOperator(res)
	return s.recordPlayer(res)
}

func (s *RoundRecorder) Done() *stats.RoundReport {
	bet := float64(s.roundBet)
	prizes := make([]int, len(s.Hits))
	for k := range prizes {
		prizes[k] = s.Rule.Prize(k)
	}
	hits := make([]int, len(s.Hits))
	copy(hits, s.Hits)

	report := &stats.RoundReport{
		Summary: &stats.SummaryReport{
			RuleName:        s.Rule.Name,
			PoolSize:        s.Rule.PoolSize,
			PickCount:       s.Rule.PickCount,
			TicketPrice:     s.Rule.TicketPrice,
			TicketsPerRound: s.TicketsPerRound,
			Rounds:          s.Basic.Rounds,
			Tickets:         s.Basic.Tickets,
			TotalBet:        s.Basic.TotalBet,
			TotalPrize:      s.Basic.TotalPrize,
			WinTickets:      s.Basic.WinTickets,
			NoWinRounds:     s.Basic.NoWinRounds,
		},
		Mult: &stats.MultReport{
			TotalMult:      float64(s.Basic.TotalPrize) / bet,
			TotalMultSqSum: float64(s.Basic.PrizeSqSum) / (bet * bet),
		},
		Hits: &stats.HitReport{
			Prize: prizes,
			Count: hits,
		},
		Operator: &stats.OperatorReport{
			Revenue:      s.Operator.Revenue,
			PaidOut:      s.Operator.PaidOut,
			Margin:       s.Operator.Margin,
			BalanceDelta: s.Operator.BalanceDelta,
		},
	}
	if s.Player.InitBalance > 0 {
		report.Player = &stats.PlayerReport{
			InitBalance: s.Player.InitBalance,
			Balance:     s.Player.Balance,
			MaxBalance:  s.Player.MaxBalance,
			MinBalance:  s.Player.MinBalance,
			Rounds:      s.Player.Rounds,
			Bust:        s.Player.Bust,
			Cashout:     s.Player.Cashout,
			Alive:       s.Player.Alive,
		}
	}
	report.Done()
	return report
}

func (s *RoundRecorder) recordBasic(res engine.DrawResult) {
	w := res.TotalPrize
	s.Basic.TotalBet += res.Tickets * s.Rule.TicketPrice
	s.Basic.TotalPrize += w
	s.Basic.PrizeSqSum += w * w
	s.Basic.Rounds++
	s.Basic.Tickets += res.Tickets
	if w == 0 {
		s.Basic.NoWinRounds++
	}
	for k, c := range res.HitCounts {
		if k < 0 || k >= len(s.Hits) {
			continue
		}
		s.Hits[k] += c
		if s.Rule.Prize(k) > 0 {
			s.Basic.WinTickets += c
		}
	}
}

// recordOperator 與 engine 結算一致：售票收入 + Σ(抽成 - 獎金)
func (s *RoundRecorder) recordOperator(res engine.DrawResult) {
	o := s.Operator
	revenue := res.Tickets * s.Rule.TicketPrice
	margin := 0
	for k, c := range res.HitCounts {
		margin += c * s.Rule.OperatorProfit(s.Rule.Prize(k))
	}
	o.Revenue += revenue
	o.PaidOut += res.TotalPrize
	o.Margin += margin
	o.BalanceDelta += revenue + margin - res.TotalPrize
}

func (s *RoundRecorder) recordPlayer(res engine.DrawResult) bool {
	p := s.Player
	b := s.roundBet

	// 更新資金
	p.Balance -= b
	p.Balance += res.TotalPrize
	p.Rounds++

	// 更新歷史最高資產
	if p.Balance > p.MaxBalance {
		p.MaxBalance = p.Balance
	}
	// 更新歷史最低資產
	if p.Balance < p.MinBalance {
		p.MinBalance = p.Balance
	}

	// 更新結局
	leave := false
	if p.Balance < b {
		p.Bust = true
		leave = true
	}
	if p.Balance >= p.leaveLine {
		p.Cashout = true
		leave = true
	}
	return leave
}

func newPlayerRecord(initBalance int) *PlayerRecord {
	p := new(PlayerRecord)
	p.InitBalance = initBalance
	p.Balance = initBalance
	p.MaxBalance = initBalance
	p.MinBalance = initBalance
	p.leaveLine = 3 * initBalance // 設定離場條件(3倍本金)
	return p
}
