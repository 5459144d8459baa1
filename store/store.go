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

// Package store 是玩家 / 營運方文件的儲存端。
//
// 提供兩種後端：
//   - Memory：行程內 map，適合開發與測試。
//   - Redis：go-redis v9，玩家以 JSON 存在 hash 內，另有 name → id 的索引。
//
// 兩者都實作 gateway.Gateway，server/api/storeapi 再把它們以 REST JSON 暴露出去。
package store

import (
	"context"
	"strings"

	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/gateway"
)

// Store 在 Gateway 之外多了營運方後台需要的查詢。
type Store interface {
	gateway.Gateway
	GetPlayer(ctx context.Context, id int) (engine.Player, error)
	ListPlayers(ctx context.Context) ([]engine.Player, error)
	Close() error
}

// Kind 後端種類
type Kind string

const (
	KindMemory Kind = "memory"
	KindRedis  Kind = "redis"
)

// ParseKind 不分大小寫；空字串視為 memory。
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindMemory:
		return KindMemory, nil
	case KindRedis:
		return KindRedis, nil
	default:
		return "", errs.Fatalf("unknown store kind: %q", s)
	}
}

func validPlayer(p engine.Player) error {
	if p.ID == 0 {
		return errs.NewWarn("player id required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errs.ErrMissingPlayerName
	}
	return nil
}

func normalizePlayer(p engine.Player) engine.Player {
	p = p.Clone()
	if p.Tickets == nil {
		p.Tickets = []engine.Ticket{}
	}
	return p
}

func normalizeOperator(op engine.Operator) engine.Operator {
	op = op.Clone()
	if op.SubmittedTickets == nil {
		op.SubmittedTickets = []engine.Ticket{}
	}
	return op
}
