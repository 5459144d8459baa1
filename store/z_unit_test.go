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

package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/rules"
)

func samplePlayer(id int, name string) engine.Player {
	p := engine.NewPlayer(id, name, rules.Default())
	p.Tickets = append(p.Tickets, engine.Ticket{ID: 1, Numbers: []int{1, 2, 3, 4, 5}, IsPlayerTicket: true})
	return p
}

// runStoreSuite 兩種後端共用的行為檢查。
func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("missing name reads nil", func(t *testing.T) {
		p, err := s.GetPlayerByName(ctx, "nobody")
		if err != nil || p != nil {
			t.Fatalf("expected (nil, nil), got (%v, %v)", p, err)
		}
	})

	t.Run("create then lookup", func(t *testing.T) {
		if err := s.CreatePlayer(ctx, samplePlayer(11, "alice")); err != nil {
			t.Fatalf("create: %v", err)
		}
		p, err := s.GetPlayerByName(ctx, "alice")
		if err != nil || p == nil {
			t.Fatalf("lookup: %v %v", p, err)
		}
		if p.ID != 11 || p.Balance != 10000 || len(p.Tickets) != 1 {
			t.Fatalf("unexpected player %+v", p)
		}
		if err := s.CreatePlayer(ctx, samplePlayer(11, "alice2")); !errors.Is(err, errs.ErrConflict) {
			t.Fatalf("expected conflict on duplicate id, got %v", err)
		}
		if err := s.CreatePlayer(ctx, samplePlayer(12, "alice")); !errors.Is(err, errs.ErrConflict) {
			t.Fatalf("expected conflict on duplicate name, got %v", err)
		}
		if _, err := s.GetPlayer(ctx, 12); !errors.Is(err, errs.ErrNotFound) {
			t.Fatalf("rejected create must not leave a record, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		p, _ := s.GetPlayer(ctx, 11)
		p.Balance = 9000
		p.Name = "alicia"
		if err := s.UpdatePlayer(ctx, 11, p); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := s.GetPlayerByName(ctx, "alicia")
		if err != nil || got == nil || got.Balance != 9000 {
			t.Fatalf("unexpected after update: %v %v", got, err)
		}
		if old, _ := s.GetPlayerByName(ctx, "alice"); old != nil {
			t.Fatalf("old name must be released")
		}
		if err := s.UpdatePlayer(ctx, 999, samplePlayer(999, "ghost")); !errors.Is(err, errs.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("list sorted by id", func(t *testing.T) {
		if err := s.CreatePlayer(ctx, samplePlayer(3, "bob")); err != nil {
			t.Fatalf("create: %v", err)
		}
		list, err := s.ListPlayers(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 || list[0].ID != 3 || list[1].ID != 11 {
			t.Fatalf("unexpected list %+v", list)
		}
	})

	t.Run("operator", func(t *testing.T) {
		op, err := s.GetOperator(ctx)
		if err != nil {
			t.Fatalf("get operator: %v", err)
		}
		if op.Balance != 0 || op.SubmittedTickets == nil {
			t.Fatalf("unexpected initial operator %+v", op)
		}
		op.Balance = 1000
		op.SubmittedTickets = append(op.SubmittedTickets, engine.Ticket{ID: 1, Numbers: []int{1, 2, 3, 4, 5}})
		if err := s.UpdateOperator(ctx, op); err != nil {
			t.Fatalf("update operator: %v", err)
		}
		got, _ := s.GetOperator(ctx)
		if got.Balance != 1000 || len(got.SubmittedTickets) != 1 {
			t.Fatalf("unexpected operator %+v", got)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemory())
}

func TestMemoryCopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := samplePlayer(1, "carol")
	if err := m.CreatePlayer(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	p.Tickets[0].Numbers[0] = 39

	got, _ := m.GetPlayer(ctx, 1)
	if got.Tickets[0].Numbers[0] != 1 {
		t.Fatalf("caller mutation leaked into store")
	}
	got.Tickets[0].Numbers[0] = 38
	again, _ := m.GetPlayer(ctx, 1)
	if again.Tickets[0].Numbers[0] != 1 {
		t.Fatalf("returned value aliases store state")
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().GetOperator(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": KindMemory, "Memory": KindMemory, "redis": KindRedis} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseKind("mongo"); err == nil {
		t.Fatalf("expected error")
	}
}

// 需要可連線的 Redis：LOTTOLAB_REDIS_ADDR=127.0.0.1:6379
func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	addr := os.Getenv("LOTTOLAB_REDIS_ADDR")
	if addr == "" {
		t.Skip("LOTTOLAB_REDIS_ADDR not set")
	}
	cfg := RedisConfig{Addr: addr, Prefix: "lottolab-test-" + uuid.NewString()}
	r, err := DialRedis(context.Background(), cfg, 2*time.Second)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer r.Close()
	defer r.Flush(context.Background())

	runStoreSuite(t, r)
}
