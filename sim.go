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
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/recorder"
	"github.com/zintix-labs/lottolab/rules"
	"github.com/zintix-labs/lottolab/stats"
	"golang.org/x/sync/errgroup"
)

// Simulator 以一或多台 Machine 大量開獎並彙整統計。
//
// 第 0 台機台使用初始 seed，其餘機台的 seed 由初始 seed 決定性推導，
// 因此同一個 seed、同樣的參數（含 worker 數）一定得到同一份報表。
// 同一個 Simulator 一次只跑一個模擬；機台在多次模擬之間沿用，狀態持續推進。
type Simulator struct {
	RuleName string

	rule     *rules.Setting
	pf       core.PRNGFactory
	initSeed int64
	seeds    *seedMaker

	mu       sync.Mutex
	machines []*Machine
}

func newSimulatorWithSeed(rule *rules.Setting, pf core.PRNGFactory, seed int64) (*Simulator, error) {
	m, err := newMachineWithSeed(rule, pf, seed)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		RuleName: rule.Name,
		rule:     rule,
		pf:       pf,
		initSeed: seed,
		seeds:    newSeedMaker(seed),
		machines: []*Machine{m},
	}, nil
}

func (s *Simulator) InitSeed() int64 {
	return s.initSeed
}

// Sim 以第 0 台機台連續開 rounds 局，每局 tickets 張。
func (s *Simulator) Sim(rounds int, tickets int, showpb bool) (*stats.RoundReport, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := positive("rounds", rounds, "tickets", tickets); err != nil {
		return nil, 0, err
	}
	rec, err := recorder.NewRoundRecorder(s.rule, tickets, 0)
	if err != nil {
		return nil, 0, err
	}
	bar := progress(rounds, showpb)
	err = drawN(s.machines[0], rec, rounds, tickets, bar)
	used := finish(bar)
	if err != nil {
		return nil, 0, err
	}
	return rec.Done(), used, nil
}

// SimMP mp 台機台各開 rounds 局，合計 rounds*mp 局，合併後回傳。
func (s *Simulator) SimMP(rounds int, tickets int, mp int, showpb bool) (*stats.RoundReport, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := positive("rounds", rounds, "tickets", tickets, "workers", mp); err != nil {
		return nil, 0, err
	}
	ms, err := s.machinesFor(mp)
	if err != nil {
		return nil, 0, err
	}
	recs, err := s.recorders(mp, tickets, 0)
	if err != nil {
		return nil, 0, err
	}

	bar := progress(rounds*mp, showpb)
	var g errgroup.Group
	for i := range mp {
		g.Go(func() error { return drawN(ms[i], recs[i], rounds, tickets, bar) })
	}
	err = g.Wait()
	used := finish(bar)
	if err != nil {
		return nil, 0, err
	}

	merged, err := recorder.MergeRoundRecorder(recs)
	if err != nil {
		return nil, 0, err
	}
	return merged.Done(), used, nil
}

// SimPlayers 模擬 players 位玩家，每位帶 initBalance 進場、每局買 tickets 張、最多 rounds 局，
// 餘額不足一局或達到 3 倍本金即離場。回傳合併報表與玩家體驗估計。
//
// 第 i 位玩家固定由第 i % mp 台機台依序處理，結果可重現。
func (s *Simulator) SimPlayers(mp int, players int, initBalance int, tickets int, rounds int, showpb bool) (*stats.RoundReport, *stats.EstimatorPlayers, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := positive("workers", mp, "players", players, "balance", initBalance, "tickets", tickets, "rounds", rounds); err != nil {
		return nil, nil, 0, err
	}
	if initBalance < tickets*s.rule.TicketPrice {
		return nil, nil, 0, errs.NewWarn("init balance must cover one round")
	}
	mp = min(mp, players)
	ms, err := s.machinesFor(mp)
	if err != nil {
		return nil, nil, 0, err
	}
	recs, err := s.recorders(players, tickets, initBalance)
	if err != nil {
		return nil, nil, 0, err
	}

	bar := progress(players, showpb)
	var g errgroup.Group
	for w := range mp {
		g.Go(func() error {
			for p := w; p < players; p += mp {
				if err := playSession(ms[w], recs[p], rounds, tickets); err != nil {
					return err
				}
				bar.Increment()
			}
			return nil
		})
	}
	err = g.Wait()
	used := finish(bar)
	if err != nil {
		return nil, nil, 0, err
	}

	merged, err := recorder.MergeRoundRecorder(recs)
	if err != nil {
		return nil, nil, 0, err
	}
	each := make([]*stats.RoundReport, players)
	for i, r := range recs {
		each[i] = r.Done()
	}
	return merged.Done(), stats.EstimatorPlayerExp(each), used, nil
}

func drawN(m *Machine, rec *recorder.RoundRecorder, rounds, tickets int, bar *pb.ProgressBar) error {
	for range rounds {
		res, err := m.play(tickets)
		if err != nil {
			return err
		}
		rec.Record(res)
		bar.Increment()
	}
	return nil
}

// playSession 一位玩家的完整遊玩；RecordWithPlayer 回報離場時提前結束。
func playSession(m *Machine, rec *recorder.RoundRecorder, rounds, tickets int) error {
	for range rounds {
		res, err := m.play(tickets)
		if err != nil {
			return err
		}
		if rec.RecordWithPlayer(res) {
			return nil
		}
	}
	return nil
}

// machinesFor 補齊到 n 台並回傳前 n 台。
func (s *Simulator) machinesFor(n int) ([]*Machine, error) {
	for len(s.machines) < n {
		m, err := newMachineWithSeed(s.rule, s.pf, s.seeds.next())
		if err != nil {
			return nil, err
		}
		s.machines = append(s.machines, m)
	}
	return s.machines[:n], nil
}

func (s *Simulator) recorders(n, tickets, initBalance int) ([]*recorder.RoundRecorder, error) {
	out := make([]*recorder.RoundRecorder, n)
	for i := range out {
		r, err := recorder.NewRoundRecorder(s.rule, tickets, initBalance)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// positive 檢查成對的 (名稱, 值)，值必須 >= 1。
func positive(kv ...any) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if v, _ := kv[i+1].(int); v < 1 {
			return errs.Warnf("%s must be at least 1", kv[i])
		}
	}
	return nil
}

// progress showpb 為 false 時進度條照常計數但不輸出。
func progress(total int, show bool) *pb.ProgressBar {
	bar := pb.StartNew(total)
	if !show {
		bar.SetWriter(io.Discard)
	}
	return bar
}

func finish(bar *pb.ProgressBar) time.Duration {
	used := time.Since(bar.StartTime())
	bar.Finish()
	return used
}

const mask63 = uint64(1<<63) - 1

// seedMaker 從初始 seed 推導工作機台的 seed：
// 狀態以模 2^63 的全週期 LCG 推進（不重複），輸出再經可逆的 mix63 打散，恆為非負。
type seedMaker struct {
	state atomic.Uint64
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		nxt := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, nxt) {
			return int64(mix63(nxt))
		}
	}
}

// mix63 splitmix64 的步驟限制在 63 位元：xor-shift 與乘奇數在模 2^63 下皆可逆。
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x
}
