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

// Package engine 實作一局樂透的購票、開獎與結算。
//
// 所有操作都是「值進、值出」：呼叫端傳入目前的 Player / Operator / 閘門狀態，
// 拿回新的狀態；失敗時不回傳任何新狀態，原本的值也不會被改動。
// 狀態的保存與持久化由呼叫端（session）負責。
//
// 一局的狀態機：
//
//	OPEN_FOR_PURCHASE --購票成功--> AWAITING_DRAW --結算--> OPEN_FOR_PURCHASE
package engine

import (
	"fmt"
	"slices"

	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/rules"
)

// Sampler 提供不重複號碼的取樣；core.Core 即為預設實作。
type Sampler interface {
	Distinct(count, maxValue int) []int
}

// Engine 綁定規則與亂數來源，本身不持有任何玩家狀態。
type Engine struct {
	rule *rules.Setting
	rng  Sampler
}

// New 建立 Engine；rule 與 rng 皆不可為 nil。
func New(rule *rules.Setting, rng Sampler) (*Engine, error) {
	if rule == nil {
		return nil, errs.NewFatal("rule setting required")
	}
	if rng == nil {
		return nil, errs.NewFatal("sampler required")
	}
	if err := rule.Valid(); err != nil {
		return nil, err
	}
	return &Engine{rule: rule, rng: rng}, nil
}

// Rule 回傳綁定的規則（唯讀使用）。
func (e *Engine) Rule() *rules.Setting {
	return e.rule
}

// Purchase 購票成功後的新狀態。
type Purchase struct {
	Player   Player
	Operator Operator
	Issued   []Ticket
	Cost     int
	GateOpen bool
}

// Settlement 結算後的新狀態。
type Settlement struct {
	Player   Player
	Operator Operator
	Result   DrawResult
	GateOpen bool
}

// DrawNumbers 抽出 count 個落在 [1, maxValue] 的不重複號碼。
func (e *Engine) DrawNumbers(count, maxValue int) ([]int, error) {
	nums := e.rng.Distinct(count, maxValue)
	if len(nums) != count {
		return nil, errs.Warnf("cannot draw %d distinct numbers from [1,%d]", count, maxValue)
	}
	return nums, nil
}

// PurchaseTickets 為玩家一次購買 ticketCount 張彩券。
//
// 檢查順序：玩家名稱 → 張數 → 閘門 → 餘額。任何一項失敗都不產生新狀態。
// 成功時：彩券同時附加到玩家與營運方、玩家扣款、營運方入帳、閘門關閉。
func (e *Engine) PurchaseTickets(player Player, operator Operator, ticketCount, unitPrice int, gateOpen bool) (Purchase, error) {
	if player.Name == "" {
		return Purchase{}, errs.ErrMissingPlayerName
	}
	if ticketCount < 1 {
		return Purchase{}, errs.ErrInvalidTicketCount
	}
	if !gateOpen {
		return Purchase{}, errs.ErrGateClosed
	}
	cost := unitPrice * ticketCount
	if player.Balance < cost {
		return Purchase{}, errs.ErrInsufficientFunds.WithExtra(fmt.Sprintf("balance=%d cost=%d", player.Balance, cost))
	}

	issued := make([]Ticket, 0, ticketCount)
	base := len(player.Tickets)
	for i := 0; i < ticketCount; i++ {
		nums, err := e.DrawNumbers(e.rule.PickCount, e.rule.PoolSize)
		if err != nil {
			return Purchase{}, err
		}
		issued = append(issued, Ticket{
			ID:             base + i + 1,
			Numbers:        nums,
			IsPlayerTicket: true,
		})
	}

	np := player.Clone()
	np.Balance -= cost
	np.Tickets = append(np.Tickets, cloneTickets(issued)...)

	no := operator.Clone()
	no.Balance += cost
	no.SubmittedTickets = append(no.SubmittedTickets, cloneTickets(issued)...)

	return Purchase{
		Player:   np,
		Operator: no,
		Issued:   issued,
		Cost:     cost,
		GateOpen: false,
	}, nil
}

// SettleRound 以開獎號碼結算玩家前 ticketsInRound 張彩券。
//
// 每張彩券：hits = |numbers ∩ drawn|，prize = 獎金表[hits]，
// 玩家餘額與累計獎金加上 prize；營運方餘額加上 (抽成 - prize)。
// DrawResult.OperatorProfit 為結算前營運方餘額減去總獎金。
func (e *Engine) SettleRound(player Player, operator Operator, drawn []int, ticketsInRound int, gateOpen bool) (Settlement, error) {
	if err := e.checkDraw(player, ticketsInRound, gateOpen); err != nil {
		return Settlement{}, err
	}
	if err := e.validDrawn(drawn); err != nil {
		return Settlement{}, err
	}

	inDraw := make(map[int]struct{}, len(drawn))
	for _, n := range drawn {
		inDraw[n] = struct{}{}
	}

	res := DrawResult{
		DrawnNumbers: slices.Clone(drawn),
		HitCounts:    make(map[int]int, e.rule.PickCount+1),
		Tickets:      ticketsInRound,
	}
	np := player.Clone()
	no := operator.Clone()
	for _, t := range player.Tickets[:ticketsInRound] {
		hits := 0
		for _, n := range t.Numbers {
			if _, ok := inDraw[n]; ok {
				hits++
			}
		}
		prize := e.rule.Prize(hits)
		res.HitCounts[hits]++
		res.TotalPrize += prize

		np.Balance += prize
		np.TotalWinnings += prize
		no.Balance += e.rule.OperatorProfit(prize) - prize
	}
	res.OperatorProfit = operator.Balance - res.TotalPrize

	return Settlement{
		Player:   np,
		Operator: no,
		Result:   res,
		GateOpen: true,
	}, nil
}

// Draw 先檢查開獎前提，再抽號並結算。前提不成立時不會消耗亂數。
func (e *Engine) Draw(player Player, operator Operator, ticketsInRound int, gateOpen bool) (Settlement, error) {
	if err := e.checkDraw(player, ticketsInRound, gateOpen); err != nil {
		return Settlement{}, err
	}
	drawn, err := e.DrawNumbers(e.rule.PickCount, e.rule.PoolSize)
	if err != nil {
		return Settlement{}, err
	}
	return e.SettleRound(player, operator, drawn, ticketsInRound, gateOpen)
}

// ResetRound 回到完全初始的狀態（不只是換局）：空白玩家、空白營運方、閘門打開。
func (e *Engine) ResetRound() (Player, Operator, bool) {
	return NewPlayer(0, "", e.rule), NewOperator(), true
}

func (e *Engine) checkDraw(player Player, ticketsInRound int, gateOpen bool) error {
	if gateOpen {
		return errs.ErrGateClosed.WithExtra("please buy the ticket")
	}
	if ticketsInRound < 1 {
		return errs.ErrInvalidTicketCount
	}
	if len(player.Tickets) < ticketsInRound {
		return errs.ErrInsufficientTickets
	}
	return nil
}

func (e *Engine) validDrawn(drawn []int) error {
	if len(drawn) != e.rule.PickCount {
		return errs.Warnf("drawn numbers must have %d values, got %d", e.rule.PickCount, len(drawn))
	}
	seen := make(map[int]struct{}, len(drawn))
	for _, n := range drawn {
		if n < 1 || n > e.rule.PoolSize {
			return errs.Warnf("drawn number %d out of [1,%d]", n, e.rule.PoolSize)
		}
		if _, dup := seen[n]; dup {
			return errs.Warnf("drawn number %d repeated", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
