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

package core

import (
	"math/rand/v2"

	"github.com/zintix-labs/lottolab/errs"
)

// PCG64 以 math/rand/v2 的 PCG 為狀態源。取樣交給 rand.Rand，快照只需要 PCG 的 128-bit 狀態。
type PCG64 struct {
	src  *rand.PCG
	rand *rand.Rand
}

func newPCG64WithSeed(seed int64) *PCG64 {
	src := rand.NewPCG(expandSeed(seed))
	return &PCG64{src: src, rand: rand.New(src)}
}

// expandSeed 以 splitmix64 把 64-bit seed 展開成 PCG 的兩個狀態字，相鄰 seed 的序列不會相近。
func expandSeed(seed int64) (hi, lo uint64) {
	x := uint64(seed) ^ golden
	return splitmix64(x), splitmix64(x ^ 0xDA942042E4DD58B5)
}

const golden = 0x9e3779b97f4a7c15

func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func (p *PCG64) Uint64() uint64 { return p.rand.Uint64() }

// Float64 [0,1)，53-bit 精度
func (p *PCG64) Float64() float64 { return p.rand.Float64() }

// IntN [0,n) 無偏；n <= 0 回傳 -1。
func (p *PCG64) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return p.rand.IntN(n)
}

func (p *PCG64) Snapshot() ([]byte, error) {
	return p.src.MarshalBinary()
}

// Restore 之後的輸出與取得快照當下完全相同。
func (p *PCG64) Restore(state []byte) error {
	if err := p.src.UnmarshalBinary(state); err != nil {
		return errs.Wrap(err, "invalid pcg64 snapshot")
	}
	return nil
}
