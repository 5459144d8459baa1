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
	"slices"
	"strconv"
	"sync"

	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
)

// Memory 行程內儲存。讀寫一律深拷貝，呼叫端拿到的值與內部狀態互不影響。
type Memory struct {
	mu       sync.RWMutex
	players  map[int]engine.Player
	byName   map[string]int
	operator engine.Operator
}

func NewMemory() *Memory {
	return &Memory{
		players:  make(map[int]engine.Player),
		byName:   make(map[string]int),
		operator: engine.NewOperator(),
	}
}

func (m *Memory) GetPlayerByName(ctx context.Context, name string) (*engine.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	if !ok {
		return nil, nil
	}
	p := m.players[id].Clone()
	return &p, nil
}

func (m *Memory) CreatePlayer(ctx context.Context, p engine.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validPlayer(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.players[p.ID]; dup {
		return errs.ErrConflict.WithExtra("player id " + strconv.Itoa(p.ID))
	}
	if _, dup := m.byName[p.Name]; dup {
		return errs.ErrConflict.WithExtra("player name " + p.Name)
	}
	m.players[p.ID] = normalizePlayer(p)
	m.byName[p.Name] = p.ID
	return nil
}

// UpdatePlayer 以 id 整筆覆寫；改名時同步更新索引。
func (m *Memory) UpdatePlayer(ctx context.Context, id int, p engine.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.ID = id
	if err := validPlayer(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.players[id]
	if !ok {
		return errs.ErrNotFound.WithExtra("player id " + strconv.Itoa(id))
	}
	if old.Name != p.Name {
		if other, dup := m.byName[p.Name]; dup && other != id {
			return errs.ErrConflict.WithExtra("player name " + p.Name)
		}
		delete(m.byName, old.Name)
		m.byName[p.Name] = id
	}
	m.players[id] = normalizePlayer(p)
	return nil
}

func (m *Memory) GetPlayer(ctx context.Context, id int) (engine.Player, error) {
	if err := ctx.Err(); err != nil {
		return engine.Player{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return engine.Player{}, errs.ErrNotFound.WithExtra("player id " + strconv.Itoa(id))
	}
	return p.Clone(), nil
}

// ListPlayers 依 id 排序回傳。
func (m *Memory) ListPlayers(ctx context.Context) ([]engine.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	ids := make([]int, 0, len(m.players))
	for id := range m.players {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]engine.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.players[id].Clone())
	}
	m.mu.RUnlock()
	return out, nil
}

func (m *Memory) GetOperator(ctx context.Context) (engine.Operator, error) {
	if err := ctx.Err(); err != nil {
		return engine.Operator{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.operator.Clone(), nil
}

func (m *Memory) UpdateOperator(ctx context.Context, op engine.Operator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.operator = normalizeOperator(op)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
