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

// Package session 保存每位使用者的遊戲狀態，把意圖（改名、進場、購票、開獎、重置）
// 交給 engine 執行，成功後再把玩家與營運方的新狀態非同步寫回 gateway。
package session

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/gateway"
	"github.com/zintix-labs/lottolab/metrics"
)

// 新玩家 id 的範圍 [1, maxPlayerID)
const maxPlayerID = 1_000_000

// State 一個 Game 在某個時間點的快照，可直接序列化給前端。
type State struct {
	Player        engine.Player      `json:"player"`
	Operator      engine.Operator    `json:"operator"`
	DrawnNumbers  []int              `json:"drawnNumbers"`
	RoundResults  *engine.DrawResult `json:"roundResults"`
	TicketsToBuy  int                `json:"numTicketsToBuy"`
	CanBuyTickets bool               `json:"canBuyTickets"`
	Phase         engine.Phase       `json:"phase"`
}

// Game 單一使用者的遊戲狀態。所有意圖以 mu 串行，一個動作跑完才接下一個。
type Game struct {
	mu  sync.Mutex
	eng *engine.Engine
	gw  gateway.Gateway
	per *Persister
	rnd core.RAND
	log *slog.Logger

	player       engine.Player
	operator     engine.Operator
	drawn        []int
	result       *engine.DrawResult
	ticketsToBuy int
	gateOpen     bool

	// 營運方已由儲存端載入；載入前不寫回營運方
	opLoaded bool

	lastActive atomic.Int64
}

// NewGame 以初始狀態建立 Game。gw / per 可為 nil（不持久化）。
func NewGame(eng *engine.Engine, gw gateway.Gateway, per *Persister, rnd core.RAND, log *slog.Logger) *Game {
	if log == nil {
		log = slog.Default()
	}
	if rnd == nil {
		rnd = core.Default().New(time.Now().UnixNano())
	}
	g := &Game{eng: eng, gw: gw, per: per, rnd: rnd, log: log}
	g.resetLocked()
	g.touch()
	return g
}

// UpdateName 只改名字，不查詢儲存端。
func (g *Game) UpdateName(name string) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touch()
	g.player.Name = strings.TrimSpace(name)
	g.persistLocked()
	return g.snapshotLocked()
}

// Enter 以目前名字查詢玩家：存在就載入，不存在就建立新玩家並寫入儲存端；接著載入營運方。
// 儲存端的錯誤只記 log，遊戲以本地狀態繼續。
func (g *Game) Enter(ctx context.Context) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touch()
	if g.player.Name == "" {
		return State{}, errs.ErrMissingPlayerName
	}
	if g.gw == nil {
		if g.player.ID == 0 {
			g.player.ID = g.newPlayerID()
		}
		return g.snapshotLocked(), nil
	}

	found, err := g.gw.GetPlayerByName(ctx, g.player.Name)
	switch {
	case err != nil:
		g.log.Error("lookup player failed", slog.String("name", g.player.Name), slog.Any("err", err))
	case found != nil:
		g.player = found.Clone()
		if g.player.Tickets == nil {
			g.player.Tickets = []engine.Ticket{}
		}
	default:
		np := engine.NewPlayer(g.newPlayerID(), g.player.Name, g.eng.Rule())
		g.player = np
		if err := g.gw.CreatePlayer(ctx, np.Clone()); err != nil {
			g.log.Error("create player failed", slog.Int("id", np.ID), slog.Any("err", err))
		}
	}

	if op, err := g.gw.GetOperator(ctx); err != nil {
		g.log.Error("load operator failed", slog.Any("err", err))
	} else {
		g.operator = op.Clone()
		g.opLoaded = true
	}
	return g.snapshotLocked(), nil
}

// SetTicketsToBuy 設定下一次購票（與開獎結算）的張數。
func (g *Game) SetTicketsToBuy(n int) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touch()
	if n < 1 {
		return State{}, errs.ErrInvalidTicketCount
	}
	g.ticketsToBuy = n
	return g.snapshotLocked(), nil
}

// BuyTickets 以目前的張數與規則票價購票。
func (g *Game) BuyTickets() (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touch()
	return g.buyLocked(g.ticketsToBuy)
}

// BuyTicketsN 以 n 張購票；成功後 n 才成為之後結算用的張數，失敗時狀態不變。
func (g *Game) BuyTicketsN(n int) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touch()
	return g.buyLocked(n)
}

func (g *Game) buyLocked(n int) (State, error) {
	res, err := g.eng.PurchaseTickets(g.player, g.operator, n, g.eng.Rule().TicketPrice, g.gateOpen)
	metrics.RecordPurchase(n, err)
	if err != nil {
		return State{}, err
	}
	g.player, g.operator, g.gateOpen = res.Player, res.Operator, res.GateOpen
	g.ticketsToBuy = n
	g.log.Debug("tickets purchased",
		slog.String("player", g.player.Name),
		slog.Int("count", len(res.Issued)),
		slog.Int("cost", res.Cost),
	)
	g.persistLocked()
	return g.snapshotLocked(), nil
}

// StartDraw 開獎並結算前 ticketsToBuy 張彩券。
func (g *Game) StartDraw() (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touch()
	st, err := g.eng.Draw(g.player, g.operator, g.ticketsToBuy, g.gateOpen)
	metrics.RecordDraw(st.Result.HitCounts, st.Result.TotalPrize, err)
	if err != nil {
		return State{}, err
	}
	g.player, g.operator, g.gateOpen = st.Player, st.Operator, st.GateOpen
	res := st.Result
	g.drawn = slices.Clone(res.DrawnNumbers)
	g.result = &res
	g.log.Debug("round settled",
		slog.String("player", g.player.Name),
		slog.Any("drawn", res.DrawnNumbers),
		slog.Int("total_prize", res.TotalPrize),
	)
	g.persistLocked()
	return g.snapshotLocked(), nil
}

// Reset 回到完全初始的狀態（名字也清空），不寫回儲存端。
// 營運方回到零值，需重新 Enter 才會再載入並寫回。
func (g *Game) Reset() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touch()
	g.resetLocked()
	return g.snapshotLocked()
}

// Snapshot 目前狀態的深拷貝。
func (g *Game) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// LastActive 最後一次操作的時間。
func (g *Game) LastActive() time.Time {
	return time.Unix(0, g.lastActive.Load())
}

func (g *Game) touch() {
	g.lastActive.Store(time.Now().UnixNano())
}

func (g *Game) resetLocked() {
	g.player, g.operator, g.gateOpen = g.eng.ResetRound()
	g.drawn = []int{}
	g.result = nil
	g.ticketsToBuy = 1
	g.opLoaded = false
}

// persistLocked 名字為空時不寫；id 為 0 時不寫玩家；營運方尚未載入時不寫營運方。
func (g *Game) persistLocked() {
	if g.per == nil || g.gw == nil || g.player.Name == "" {
		return
	}
	gw := g.gw
	if g.player.ID != 0 {
		p := g.player.Clone()
		g.per.Enqueue(Job{
			Name: "update_player",
			Run:  func(ctx context.Context) error { return gw.UpdatePlayer(ctx, p.ID, p) },
		})
	}
	if !g.opLoaded {
		return
	}
	op := g.operator.Clone()
	g.per.Enqueue(Job{
		Name: "update_operator",
		Run:  func(ctx context.Context) error { return gw.UpdateOperator(ctx, op) },
	})
}

func (g *Game) snapshotLocked() State {
	var res *engine.DrawResult
	if g.result != nil {
		r := *g.result
		r.DrawnNumbers = slices.Clone(r.DrawnNumbers)
		r.HitCounts = make(map[int]int, len(g.result.HitCounts))
		for k, v := range g.result.HitCounts {
			r.HitCounts[k] = v
		}
		res = &r
	}
	return State{
		Player:        g.player.Clone(),
		Operator:      g.operator.Clone(),
		DrawnNumbers:  slices.Clone(g.drawn),
		RoundResults:  res,
		TicketsToBuy:  g.ticketsToBuy,
		CanBuyTickets: g.gateOpen,
		Phase:         engine.PhaseOf(g.gateOpen),
	}
}

func (g *Game) newPlayerID() int {
	for {
		if id := g.rnd.IntN(maxPlayerID); id != 0 {
			return id
		}
	}
}
