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
	"sync"

	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/rules"
)

// Machine 一台開獎機台：持有自己的 PRNG、Engine，以及一位不會破產的模擬玩家與營運方。
//
// 每局都走完整的購票 → 開獎 → 結算流程；結算後清空彩券，避免狀態無限成長。
type Machine struct {
	rule     *rules.Setting // 規則（唯讀）
	core     *core.Core     // RNG 核心（熱路徑會頻繁取樣）
	eng      *engine.Engine // 無狀態引擎
	player   engine.Player  // 模擬玩家（餘額不足時補足一局的費用）
	operator engine.Operator
	mu       sync.Mutex // 防併發鎖：保護玩家、營運方與核心狀態一致性
	initseed int64      // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
}

func newMachineWithSeed(rule *rules.Setting, pf core.PRNGFactory, seed int64) (*Machine, error) {
	c := core.New(pf.New(seed))
	eng, err := engine.New(rule, c)
	if err != nil {
		return nil, err
	}
	return &Machine{
		rule:     rule,
		core:     c,
		eng:      eng,
		player:   engine.NewPlayer(1, "sim", rule),
		operator: engine.NewOperator(),
		initseed: seed,
	}, nil
}

// Play 購買 tickets 張彩券並開獎，回傳本局結果。
func (m *Machine) Play(tickets int) (engine.DrawResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.play(tickets)
}

// play 不加鎖，給模擬器熱路徑使用（每台機台只屬於一個 worker）。
func (m *Machine) play(tickets int) (engine.DrawResult, error) {
	cost := tickets * m.rule.TicketPrice
	if m.player.Balance < cost {
		m.player.Balance = cost
	}
	buy, err := m.eng.PurchaseTickets(m.player, m.operator, tickets, m.rule.TicketPrice, true)
	if err != nil {
		return engine.DrawResult{}, err
	}
	st, err := m.eng.Draw(buy.Player, buy.Operator, tickets, buy.GateOpen)
	if err != nil {
		return engine.DrawResult{}, err
	}
	m.player = st.Player
	m.player.Tickets = m.player.Tickets[:0]
	m.operator = st.Operator
	m.operator.SubmittedTickets = m.operator.SubmittedTickets[:0]
	return st.Result, nil
}

// OperatorBalance 機台營運方目前的餘額。
func (m *Machine) OperatorBalance() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.operator.Balance
}

// InitSeed 出生 seed
func (m *Machine) InitSeed() int64 {
	return m.initseed
}

// Snapshot 保存 PRNG 狀態。
func (m *Machine) Snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.core.Snapshot()
	if err != nil {
		return nil, errs.Wrap(err, "snapshot core failed")
	}
	return b, nil
}

// Restore 還原 PRNG 狀態；之後的開獎序列與保存當下相同。
func (m *Machine) Restore(b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.core.Restore(b); err != nil {
		return errs.Wrap(err, "restore core failed")
	}
	return nil
}
