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

package server

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/zintix-labs/lottolab/gateway"
	"github.com/zintix-labs/lottolab/server/svrcfg"
	"github.com/zintix-labs/lottolab/store"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAssembleMemory(t *testing.T) {
	sc, err := Assemble(context.Background(), svrcfg.DefaultFileConfig(), quietLog())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if _, ok := sc.Store.(*store.Memory); !ok {
		t.Fatalf("expected memory store, got %T", sc.Store)
	}
	if sc.Lab == nil || sc.Lab.Rule().Name != "lotto-5-39" {
		t.Fatalf("expected default rule")
	}
	if err := sc.Vaild(); err != nil || sc.Gateway != sc.Store {
		t.Fatalf("gateway should default to the store: %v", err)
	}
}

func TestAssembleRemoteGateway(t *testing.T) {
	fc := svrcfg.DefaultFileConfig()
	fc.Gateway = "http://store.internal:8080/"
	sc, err := Assemble(context.Background(), fc, quietLog())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if sc.Store != nil {
		t.Fatalf("remote gateway must not create a local store")
	}
	if _, ok := sc.Gateway.(*gateway.Client); !ok {
		t.Fatalf("expected gateway client, got %T", sc.Gateway)
	}
}

func TestAssembleErrors(t *testing.T) {
	fc := svrcfg.DefaultFileConfig()
	fc.Store = "sqlite"
	if _, err := Assemble(context.Background(), fc, quietLog()); err == nil {
		t.Fatalf("unknown store must fail")
	}
	fc = svrcfg.DefaultFileConfig()
	fc.Rules = "/nonexistent/rule.yaml"
	if _, err := Assemble(context.Background(), fc, quietLog()); err == nil {
		t.Fatalf("missing rule file must fail")
	}
	fc = svrcfg.DefaultFileConfig()
	fc.Store = "redis"
	if _, err := Assemble(context.Background(), fc, quietLog()); err == nil {
		t.Fatalf("redis without addr must fail")
	}
}
