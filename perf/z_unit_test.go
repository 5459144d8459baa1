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

package perf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "cpu", "heap", "allocs"} {
		if _, err := ParseMode(s); err != nil {
			t.Fatalf("mode %q: %v", s, err)
		}
	}
	if _, err := ParseMode("block"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestRunWritesProfile(t *testing.T) {
	dir := t.TempDir()
	called := false
	if err := Run(dir, ModeHeap, func() error { called = true; return nil }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Fatalf("exe not called")
	}
	if _, err := os.Stat(filepath.Join(dir, "heap.pprof")); err != nil {
		t.Fatalf("heap profile missing: %v", err)
	}
}

func TestRunReturnsExeError(t *testing.T) {
	boom := errors.New("boom")
	if err := Run(t.TempDir(), ModeAllocs, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected exe error, got %v", err)
	}
	if err := Run("", ModeNone, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected exe error, got %v", err)
	}
}
