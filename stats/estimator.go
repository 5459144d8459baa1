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

package stats

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// 所有區間估計的信心水準
const confidence = 0.95

// EstimatorPlayers 多位模擬玩家的體驗估計。每個 RoundReport 代表一位玩家的完整一段遊玩。
type EstimatorPlayers struct {
	Players     int
	RtpStat     RtpStat
	EventStat   EventStat
	SessionStat SessionStat
}

// RtpStat 玩家個人 RTP 的分布。
type RtpStat struct {
	ExpMedian PointStat
	ExpPerc   ExpPerc // 第 q 分位玩家拿到的 RTP
	RtpPerc   RtpPerc // RTP 不超過門檻的玩家比例
}

type ExpPerc struct {
	ExpP10 PointStat
	ExpP33 PointStat
	ExpP67 PointStat
	ExpP90 PointStat
}

type RtpPerc struct {
	Rtp30  PointStat
	Rtp50  PointStat
	Rtp70  PointStat
	Rtp100 PointStat
}

// PointStat 點估計與 95% 信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

type EventStat struct {
	Jackpot EventCount // 每位玩家全中的張數
	Hits    HitEvent
}

// EventCount 某事件在一位玩家身上發生 0 / 1 / 2 / 3+ 次的比例
type EventCount struct {
	Zero PointStat
	One  PointStat
	Two  PointStat
	More PointStat
}

// HitEvent 以命中數為索引
type HitEvent struct {
	HitLabel []string
	HitCount []EventCount
}

type SessionStat struct {
	Bust    PointStat // 餘額不足一局
	Cashout PointStat // 達到離場目標
	Alive   PointStat // 局數用盡仍在場
	Profit  PointStat // 離場餘額高於初始餘額
	Rounds  PointStat // 中位數遊玩局數
}

// EstimatorPlayerExp 從每位玩家的報告估計整體玩家體驗。輸入的報告會被 Done。
func EstimatorPlayerExp(sts []*RoundReport) *EstimatorPlayers {
	out := &EstimatorPlayers{Players: len(sts)}
	if len(sts) == 0 {
		return out
	}
	for _, s := range sts {
		s.Done()
	}
	out.RtpStat = rtpStat(sts)
	out.EventStat = eventStat(sts)
	out.SessionStat = sessionStat(sts)
	return out
}

func rtpStat(sts []*RoundReport) RtpStat {
	rtp := make([]float64, len(sts))
	for i, s := range sts {
		rtp[i] = s.Rtp()
	}
	slices.Sort(rtp)
	return RtpStat{
		ExpMedian: quantile(rtp, 0.5),
		ExpPerc: ExpPerc{
			ExpP10: quantile(rtp, 0.10),
			ExpP33: quantile(rtp, 1.0/3.0),
			ExpP67: quantile(rtp, 2.0/3.0),
			ExpP90: quantile(rtp, 0.90),
		},
		RtpPerc: RtpPerc{
			Rtp30:  shareAtMost(rtp, 0.30),
			Rtp50:  shareAtMost(rtp, 0.50),
			Rtp70:  shareAtMost(rtp, 0.70),
			Rtp100: shareAtMost(rtp, 1.00),
		},
	}
}

func eventStat(sts []*RoundReport) EventStat {
	levels := 0
	for _, s := range sts {
		levels = max(levels, len(s.Hits.Count))
	}
	ev := EventStat{
		Hits: HitEvent{
			HitLabel: make([]string, levels),
			HitCount: make([]EventCount, levels),
		},
	}

	var jackpot [4]int
	perHit := make([][4]int, levels)
	for _, s := range sts {
		jackpot[bucket(s.Jackpots())]++
		for k := range levels {
			c := 0
			if k < len(s.Hits.Count) {
				c = s.Hits.Count[k]
			}
			perHit[k][bucket(c)]++
		}
	}

	n := len(sts)
	ev.Jackpot = eventCount(jackpot, n)
	for k := range levels {
		ev.Hits.HitLabel[k] = hitLabel(sts[0].Hits.Prize, k)
		ev.Hits.HitCount[k] = eventCount(perHit[k], n)
	}
	return ev
}

func sessionStat(sts []*RoundReport) SessionStat {
	var bust, cash, alive, profit int
	rounds := make([]float64, 0, len(sts))
	for _, s := range sts {
		p := s.Player
		if p == nil {
			continue
		}
		if p.Bust {
			bust++
		}
		if p.Cashout {
			cash++
		}
		if p.Alive {
			alive++
		}
		if p.Balance > p.InitBalance {
			profit++
		}
		rounds = append(rounds, float64(p.Rounds))
	}
	slices.Sort(rounds)
	n := len(sts)
	return SessionStat{
		Bust:    proportion(bust, n),
		Cashout: proportion(cash, n),
		Alive:   proportion(alive, n),
		Profit:  proportion(profit, n),
		Rounds:  quantile(rounds, 0.5),
	}
}

func hitLabel(prize []int, k int) string {
	if k < len(prize) && prize[k] > 0 {
		return fmt.Sprintf("%d hits (%d)", k, prize[k])
	}
	return fmt.Sprintf("%d hits", k)
}

func bucket(c int) int {
	return min(max(c, 0), 3)
}

func eventCount(b [4]int, n int) EventCount {
	return EventCount{
		Zero: proportion(b[0], n),
		One:  proportion(b[1], n),
		Two:  proportion(b[2], n),
		More: proportion(b[3], n),
	}
}

func proportion(k, n int) PointStat {
	hat, ci := proportionCICP(k, n, confidence)
	return PointStat{Hat: hat, CI: ci}
}

// proportionCICP 二項比例 k/n 的 Clopper-Pearson 精確區間。
func proportionCICP(k int, n int, level float64) (float64, CI) {
	if n == 0 {
		return 0, CI{Lo: 0, Hi: 1}
	}
	lo, hi := betaBounds(k, n, level)
	return float64(k) / float64(n), CI{Lo: lo, Hi: hi}
}

// betaBounds 以 Beta 分位數反推成功機率的上下界；k 落在邊界時對應端點固定為 0 或 1。
func betaBounds(k, n int, level float64) (lo, hi float64) {
	alpha := 1 - level
	lo, hi = 0, 1
	if k > 0 {
		lo = distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(alpha / 2)
	}
	if k < n {
		hi = distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(1 - alpha/2)
	}
	return lo, hi
}

// shareAtMost sorted 中不超過 x 的比例。
func shareAtMost(sorted []float64, x float64) PointStat {
	k := sort.Search(len(sorted), func(i int) bool { return sorted[i] > x })
	return proportion(k, len(sorted))
}

// quantile 最近秩點估計；區間以秩的 Beta 界換回樣本值。sorted 必須已排序。
func quantile(sorted []float64, q float64) PointStat {
	n := len(sorted)
	if n == 0 {
		return PointStat{}
	}
	at := func(i int) float64 { return sorted[min(max(i, 0), n-1)] }

	ps := PointStat{Hat: at(int(q * float64(n)))}
	if n < 2 {
		ps.CI = CI{Lo: ps.Hat, Hi: ps.Hat}
		return ps
	}
	rank := min(max(int(q*float64(n)), 1), n-1)
	pLo, pHi := betaBounds(rank, n, confidence)
	ps.CI = CI{Lo: at(int(pLo * float64(n))), Hi: at(int(pHi*float64(n)) - 1)}
	return ps
}

// Out 以表格輸出至 stdout。
func (est *EstimatorPlayers) Out() {
	fmt.Print(est.Table())
}

func (est *EstimatorPlayers) Table() string {
	var sb strings.Builder
	r := est.RtpStat
	sb.WriteString(fmtTable(fmt.Sprintf("Player RTP (%d players)", est.Players),
		[]string{"Median", "P10", "P33", "P67", "P90", "<= 30%", "<= 50%", "<= 70%", "<= 100%"},
		map[string]string{
			"Median":  pct(r.ExpMedian),
			"P10":     pct(r.ExpPerc.ExpP10),
			"P33":     pct(r.ExpPerc.ExpP33),
			"P67":     pct(r.ExpPerc.ExpP67),
			"P90":     pct(r.ExpPerc.ExpP90),
			"<= 30%":  pct(r.RtpPerc.Rtp30),
			"<= 50%":  pct(r.RtpPerc.Rtp50),
			"<= 70%":  pct(r.RtpPerc.Rtp70),
			"<= 100%": pct(r.RtpPerc.Rtp100),
		}))

	sb.WriteString(fmtTable("Jackpot Tickets per Player", countKeys, countMsg(est.EventStat.Jackpot)))

	hits := est.EventStat.Hits
	msg := make(map[string]string, len(hits.HitLabel))
	for i, label := range hits.HitLabel {
		ec := hits.HitCount[i]
		msg[label] = fmt.Sprintf("%s / %s / %s / %s",
			pctHat(ec.Zero), pctHat(ec.One), pctHat(ec.Two), pctHat(ec.More))
	}
	sb.WriteString(fmtTable("Hits per Player (0 / 1 / 2 / 3+)", hits.HitLabel, msg))

	ss := est.SessionStat
	sb.WriteString(fmtTable("Session Outcome",
		[]string{"Bust", "Cashout", "Alive", "Profit", "Median Rounds"},
		map[string]string{
			"Bust":          pct(ss.Bust),
			"Cashout":       pct(ss.Cashout),
			"Alive":         pct(ss.Alive),
			"Profit":        pct(ss.Profit),
			"Median Rounds": fmt.Sprintf("%.0f [%.0f, %.0f]", ss.Rounds.Hat, ss.Rounds.CI.Lo, ss.Rounds.CI.Hi),
		}))
	return sb.String()
}

var countKeys = []string{"0", "1", "2", "3+"}

func countMsg(ec EventCount) map[string]string {
	return map[string]string{
		"0":  pct(ec.Zero),
		"1":  pct(ec.One),
		"2":  pct(ec.Two),
		"3+": pct(ec.More),
	}
}

func pctHat(ps PointStat) string {
	return fmt.Sprintf("%.2f%%", 100*ps.Hat)
}

func pct(ps PointStat) string {
	return fmt.Sprintf("%.2f%% [%.2f%%, %.2f%%]", 100*ps.Hat, 100*ps.CI.Lo, 100*ps.CI.Hi)
}
