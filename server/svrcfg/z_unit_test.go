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

package svrcfg

import (
	"testing"
	"time"

	"github.com/zintix-labs/lottolab"
	"github.com/zintix-labs/lottolab/store"
)

func TestParseFileKeepsDefaults(t *testing.T) {
	fc, err := ParseFile([]byte("addr: \":9100\"\nsession:\n  ttl: 30m\npersist:\n  timeout: 2s\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fc.Addr != ":9100" || fc.Session.TTL != 30*time.Minute || fc.Persist.Timeout != 2*time.Second {
		t.Fatalf("file values not applied %+v", fc)
	}
	def := DefaultFileConfig()
	if fc.Session.Sweep != def.Session.Sweep || fc.Persist.Buffer != def.Persist.Buffer || fc.Store != "memory" {
		t.Fatalf("defaults lost %+v", fc)
	}
	if _, err := ParseFile([]byte("addr: [")); err == nil {
		t.Fatalf("broken yaml must fail")
	}
}

func TestLoadFileEmptyPath(t *testing.T) {
	fc, err := LoadFile("")
	if err != nil || fc.Addr != ":8039" {
		t.Fatalf("empty path must return defaults: %+v %v", fc, err)
	}
	if _, err := LoadFile("/nonexistent/svr.yaml"); err == nil {
		t.Fatalf("missing file must fail")
	}
}

func TestVaild(t *testing.T) {
	if err := (&SvrCfg{}).Vaild(); err == nil {
		t.Fatalf("missing lab must fail")
	}
	lab, _ := lottolab.New(nil, nil)
	if err := (&SvrCfg{Lab: lab}).Vaild(); err == nil {
		t.Fatalf("missing store and gateway must fail")
	}

	mem := store.NewMemory()
	sc := &SvrCfg{Lab: lab, Store: mem, Sim: SimConfig{MaxRounds: 50_000_000, MaxWorker: 100}}
	if err := sc.Vaild(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	if sc.Log == nil || sc.Gateway == nil || sc.Addr != ":8039" {
		t.Fatalf("defaults not filled %+v", sc)
	}
	if sc.Sim.MaxWorker != 32 || sc.Sim.MaxRounds != 10_000_000 {
		t.Fatalf("sim limits not clamped %+v", sc.Sim)
	}
	if sc.Persist.Buffer != 1024 || sc.Persist.Timeout != 5*time.Second {
		t.Fatalf("persist defaults not filled %+v", sc.Persist)
	}
}
