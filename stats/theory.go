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
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// HitProbabilities 回傳單張彩券命中 k 個號碼的理論機率（k = 0..pick）。
//
// 彩券與開獎各自從 [1,pool] 取 pick 個不重複號碼，命中數服從超幾何分布：
//
//	P(k) = C(pick,k) * C(pool-pick, pick-k) / C(pool,pick)
//
// 以對數二項係數計算，避免大號碼池溢位。
func HitProbabilities(pool, pick int) []float64 {
	if pool < 1 || pick < 1 || pick > pool {
		return []float64{}
	}
	out := make([]float64, pick+1)
	logTotal := combin.LogGeneralizedBinomial(float64(pool), float64(pick))
	for k := 0; k <= pick; k++ {
		miss := pick - k
		if miss > pool-pick {
			continue
		}
		lp := combin.LogGeneralizedBinomial(float64(pick), float64(k)) +
			combin.LogGeneralizedBinomial(float64(pool-pick), float64(miss)) -
			logTotal
		out[k] = math.Exp(lp)
	}
	return out
}

// TheoryRTP 期望 RTP = Σ P(k) * prize(k) / price。prize 以命中數為索引。
func TheoryRTP(prob []float64, prize []int, price int) float64 {
	if price <= 0 {
		return 0
	}
	ev := 0.0
	for k, p := range prob {
		if k < len(prize) {
			ev += p * float64(prize[k])
		}
	}
	return ev / float64(price)
}
