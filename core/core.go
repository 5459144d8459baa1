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

// Package core 提供開獎與選號所需的亂數核心。
//
// 亂數來源一律透過介面注入：正式服務用 crypto/rand 產生 seed，
// 測試與模擬則指定 seed，確保同一個 seed 得到同一串號碼。
package core

import (
	"crypto/rand"
	"math"
	"math/big"
)

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 以 seed 建立 PRNG。
//
// 合約：同一個實作、同一個 seed，New(seed) 必須產生相同的輸出序列。
type PRNGFactory interface {
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）。
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// NewSeed 由 crypto/rand 產生非負 int64 seed。
func NewSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, err
	}
	return seed.Int64(), nil
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewWithSeed 以預設 PCG64 與指定 seed 建立 Core。
func NewWithSeed(seed int64) *Core {
	return New(Default().New(seed))
}

// Between 回傳 [lo, hi] 的均勻整數，hi < lo 時回傳 lo。
func (c *Core) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + c.IntN(hi-lo+1)
}

// Distinct 以拒絕採樣取出 count 個落在 [1, maxValue] 的不重複整數，保留抽出順序。
//
// 每次抽一個數，若已抽過就重抽；count 遠小於 maxValue 時重抽次數極少。
// 呼叫端需保證 1 <= count <= maxValue，否則回傳 nil（避免無窮迴圈）。
func (c *Core) Distinct(count, maxValue int) []int {
	if count < 1 || maxValue < 1 || count > maxValue {
		return nil
	}
	out := make([]int, 0, count)
	seen := make([]bool, maxValue+1)
	for len(out) < count {
		n := c.IntN(maxValue) + 1
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
