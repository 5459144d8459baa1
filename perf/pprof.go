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

// Package perf 把模擬器包進 pprof，供 cmd/run -p 使用。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/lottolab/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// Mode profiling 種類；空字串代表不開。
type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

// ParseMode 未知的名稱回傳 Warn。
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	default:
		return ModeNone, errs.NewWarn("unknown pprof mode: " + s)
	}
}

// Run 依 mode 執行 exe，並把 profile 寫到 dir。exe 的錯誤優先回傳。
//
// Usage like:
//
//	go run ./cmd/run -p cpu
//	go tool pprof build/profiling/cpu.pprof
func Run(dir string, mode Mode, exe func() error) error {
	if mode == ModeNone {
		return exe()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create pprof dir failed: "+dir)
	}
	switch mode {
	case ModeCPU:
		return cpu(dir, exe)
	case ModeHeap:
		return after(dir, "heap", exe)
	case ModeAllocs:
		return after(dir, "allocs", exe)
	default:
		return exe()
	}
}

// cpu 涵蓋 exe 整段執行期間；可直接作為 PGO 的 default.pgo。
func cpu(dir string, exe func() error) error {
	f, err := os.Create(filepath.Join(dir, "cpu.pprof"))
	if err != nil {
		return errs.Wrap(err, "create cpu.pprof failed")
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile failed")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// after 在 exe 結束後寫出 heap（in-use）或 allocs（累積配置）快照。
func after(dir, name string, exe func() error) error {
	runErr := exe()
	// heap 快照前 GC 一次，讓 live objects 貼近最新狀態
	if name == "heap" {
		runtime.GC()
	}
	f, err := os.Create(filepath.Join(dir, name+".pprof"))
	if err != nil {
		return errs.Wrap(err, "create "+name+".pprof failed")
	}
	defer f.Close()
	if prof := pprof.Lookup(name); prof != nil {
		if err := prof.WriteTo(f, 0); err != nil {
			return errs.Wrap(err, "write "+name+" profile failed")
		}
	}
	return runErr
}
