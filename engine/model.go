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

package engine

import (
	"slices"

	"github.com/zintix-labs/lottolab/rules"
)

// Ticket 一張已售出的彩券，售出後不可變。
type Ticket struct {
	ID             int   `json:"id"`
	Numbers        []int `json:"numbers"`
	IsPlayerTicket bool  `json:"isPlayerTicket"`
}

// Clone 深拷貝
func (t Ticket) Clone() Ticket {
	t.Numbers = slices.Clone(t.Numbers)
	return t
}

// Player 玩家帳戶。JSON 欄位名稱與儲存端文件一致。
type Player struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Balance       int      `json:"balance"`
	TotalWinnings int      `json:"totalWinnings"`
	Tickets       []Ticket `json:"tickets"`
}

// NewPlayer 以規則的起始餘額建立新玩家。
func NewPlayer(id int, name string, s *rules.Setting) Player {
	return Player{
		ID:      id,
		Name:    name,
		Balance: s.InitialBalance,
		Tickets: []Ticket{},
	}
}

// Clone 深拷貝（含所有彩券）
func (p Player) Clone() Player {
	p.Tickets = cloneTickets(p.Tickets)
	return p
}

// Operator 營運方帳戶（單例）。
type Operator struct {
	Balance          int      `json:"balance"`
	SubmittedTickets []Ticket `json:"submittedTickets"`
}

// NewOperator 回傳初始營運方：餘額 0、沒有任何彩券。
func NewOperator() Operator {
	return Operator{SubmittedTickets: []Ticket{}}
}

// Clone 深拷貝
func (o Operator) Clone() Operator {
	o.SubmittedTickets = cloneTickets(o.SubmittedTickets)
	return o
}

// DrawResult 一局開獎的彙總結果，不落地保存。
//
// HitCounts 以命中數為鍵（0..PickCount），每張結算的彩券都會被計入一次，
// 因此各值加總等於 Tickets。
type DrawResult struct {
	DrawnNumbers   []int       `json:"drawnNumbers"`
	HitCounts      map[int]int `json:"hitCounts"`
	Tickets        int         `json:"tickets"`
	TotalPrize     int         `json:"totalPrize"`
	OperatorProfit int         `json:"operatorProfit"`
}

// Phase 一局的狀態，由購買閘門推導。
type Phase string

const (
	PhaseOpenForPurchase Phase = "OPEN_FOR_PURCHASE"
	PhaseAwaitingDraw    Phase = "AWAITING_DRAW"
)

// PhaseOf 閘門開著代表可購買，關著代表已購買、等待開獎。
func PhaseOf(gateOpen bool) Phase {
	if gateOpen {
		return PhaseOpenForPurchase
	}
	return PhaseAwaitingDraw
}

func cloneTickets(src []Ticket) []Ticket {
	out := make([]Ticket, len(src))
	for i, t := range src {
		out[i] = t.Clone()
	}
	return out
}
