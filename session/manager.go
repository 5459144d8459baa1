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

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/gateway"
	"github.com/zintix-labs/lottolab/metrics"
	"github.com/zintix-labs/lottolab/rules"
)

// ManagerConfig TTL 為閒置多久後回收；Sweep 為 janitor 掃描間隔。
type ManagerConfig struct {
	TTL   time.Duration
	Sweep time.Duration
}

var DefaultManagerConfig = ManagerConfig{
	TTL:   time.Hour,
	Sweep: 10 * time.Minute,
}

// Manager 以 uuid 管理 Game。每個 Game 擁有自己的 Engine 與 PRNG，彼此不共享亂數狀態。
//
// Manager 同時是 app.Component：Run 跑 janitor，Shutdown 停止它。
type Manager struct {
	mu    sync.RWMutex
	games map[string]*Game

	rule    *rules.Setting
	factory core.PRNGFactory
	gw      gateway.Gateway
	per     *Persister
	log     *slog.Logger
	cfg     ManagerConfig

	stop chan struct{}
	once sync.Once
}

// NewManager factory 為 nil 時使用預設 PCG64；gw / per 可為 nil。
func NewManager(rule *rules.Setting, factory core.PRNGFactory, gw gateway.Gateway, per *Persister, log *slog.Logger, cfg ManagerConfig) (*Manager, error) {
	if rule == nil {
		return nil, errs.NewFatal("rule setting required")
	}
	if err := rule.Valid(); err != nil {
		return nil, err
	}
	if factory == nil {
		factory = core.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultManagerConfig.TTL
	}
	if cfg.Sweep <= 0 {
		cfg.Sweep = DefaultManagerConfig.Sweep
	}
	return &Manager{
		games:   make(map[string]*Game),
		rule:    rule,
		factory: factory,
		gw:      gw,
		per:     per,
		log:     log,
		cfg:     cfg,
		stop:    make(chan struct{}),
	}, nil
}

// Create 建立新的 Game 並回傳其 id。
func (m *Manager) Create() (string, *Game, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return "", nil, errs.Wrap(err, "generate session seed failed")
	}
	return m.CreateWithSeed(seed)
}

// CreateWithSeed 以指定 seed 建立 Game（重現問題或測試用）。
func (m *Manager) CreateWithSeed(seed int64) (string, *Game, error) {
	rng := core.New(m.factory.New(seed))
	eng, err := engine.New(m.rule, rng)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	g := NewGame(eng, m.gw, m.per, rng, m.log.With(slog.String("session", id)))

	m.mu.Lock()
	m.games[id] = g
	m.mu.Unlock()
	metrics.SessionOpened()
	return id, g, nil
}

func (m *Manager) Get(id string) (*Game, bool) {
	m.mu.RLock()
	g, ok := m.games[id]
	m.mu.RUnlock()
	return g, ok
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.games[id]
	delete(m.games, id)
	m.mu.Unlock()
	if ok {
		metrics.SessionClosed()
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// Sweep 移除在 now 之前閒置超過 TTL 的 Game，回傳移除數量。
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	removed := 0
	for id, g := range m.games {
		if now.Sub(g.LastActive()) > m.cfg.TTL {
			delete(m.games, id)
			removed++
		}
	}
	m.mu.Unlock()
	for i := 0; i < removed; i++ {
		metrics.SessionClosed()
	}
	if removed > 0 {
		m.log.Info("inactive sessions removed", slog.Int("count", removed))
	}
	return removed
}

// Run janitor 迴圈，直到 Shutdown。
func (m *Manager) Run() error {
	t := time.NewTicker(m.cfg.Sweep)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			m.Sweep(now)
		case <-m.stop:
			return nil
		}
	}
}

func (m *Manager) Shutdown(ctx context.Context) error {
	m.once.Do(func() { close(m.stop) })
	return nil
}
