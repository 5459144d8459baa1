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
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/zintix-labs/lottolab/engine"
	"github.com/zintix-labs/lottolab/errs"
)

const defaultPrefix = "lottolab"

// RedisConfig 連線設定；Prefix 為空時使用 "lottolab"。
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Redis 以 go-redis 實作的儲存端。
//
// Key 佈局：
//
//	<prefix>:players       hash  id   → Player JSON
//	<prefix>:players:name  hash  name → id
//	<prefix>:operator      string     → Operator JSON
type Redis struct {
	rdb    *goredis.Client
	prefix string
}

// DialRedis 建立連線並在 timeout 內 ping 一次確認可用。
func DialRedis(ctx context.Context, cfg RedisConfig, timeout time.Duration) (*Redis, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errs.NewFatal("redis addr required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(c).Err(); err != nil {
		_ = rdb.Close()
		return nil, errs.Wrap(err, "redis ping failed: "+cfg.Addr)
	}
	return NewRedis(rdb, cfg.Prefix), nil
}

// NewRedis 以既有 client 建立儲存端。
func NewRedis(rdb *goredis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) playersKey() string  { return r.prefix + ":players" }
func (r *Redis) nameKey() string     { return r.prefix + ":players:name" }
func (r *Redis) operatorKey() string { return r.prefix + ":operator" }

func (r *Redis) GetPlayerByName(ctx context.Context, name string) (*engine.Player, error) {
	id, err := r.rdb.HGet(ctx, r.nameKey(), name).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "hget player name failed")
	}
	p, err := r.hgetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// 索引殘留：視同不存在
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Redis) CreatePlayer(ctx context.Context, p engine.Player) error {
	if err := validPlayer(p); err != nil {
		return err
	}
	data, err := json.Marshal(normalizePlayer(p))
	if err != nil {
		return errs.Wrap(err, "marshal player failed")
	}
	field := strconv.Itoa(p.ID)
	ok, err := r.rdb.HSetNX(ctx, r.playersKey(), field, data).Result()
	if err != nil {
		return errs.Wrap(err, "hsetnx player failed")
	}
	if !ok {
		return errs.ErrConflict.WithExtra("player id " + field)
	}
	ok, err = r.rdb.HSetNX(ctx, r.nameKey(), p.Name, field).Result()
	if err != nil || !ok {
		// 名稱已被占用：撤回剛寫入的玩家
		_ = r.rdb.HDel(ctx, r.playersKey(), field).Err()
		if err != nil {
			return errs.Wrap(err, "hsetnx player name failed")
		}
		return errs.ErrConflict.WithExtra("player name " + p.Name)
	}
	return nil
}

func (r *Redis) UpdatePlayer(ctx context.Context, id int, p engine.Player) error {
	p.ID = id
	if err := validPlayer(p); err != nil {
		return err
	}
	field := strconv.Itoa(id)
	old, err := r.hgetPlayer(ctx, field)
	if err != nil {
		return err
	}
	if old.Name != p.Name {
		other, err := r.rdb.HGet(ctx, r.nameKey(), p.Name).Result()
		switch {
		case err == nil && other != field:
			return errs.ErrConflict.WithExtra("player name " + p.Name)
		case err != nil && !errors.Is(err, goredis.Nil):
			return errs.Wrap(err, "hget player name failed")
		}
	}
	data, err := json.Marshal(normalizePlayer(p))
	if err != nil {
		return errs.Wrap(err, "marshal player failed")
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if old.Name != p.Name {
			pipe.HDel(ctx, r.nameKey(), old.Name)
			pipe.HSet(ctx, r.nameKey(), p.Name, field)
		}
		pipe.HSet(ctx, r.playersKey(), field, data)
		return nil
	})
	if err != nil {
		return errs.Wrap(err, "update player failed")
	}
	return nil
}

func (r *Redis) GetPlayer(ctx context.Context, id int) (engine.Player, error) {
	return r.hgetPlayer(ctx, strconv.Itoa(id))
}

// ListPlayers 依 id 排序回傳。
func (r *Redis) ListPlayers(ctx context.Context) ([]engine.Player, error) {
	vals, err := r.rdb.HGetAll(ctx, r.playersKey()).Result()
	if err != nil {
		return nil, errs.Wrap(err, "hgetall players failed")
	}
	out := make([]engine.Player, 0, len(vals))
	for field, raw := range vals {
		var p engine.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, errs.Wrap(err, "unmarshal player failed: "+field)
		}
		out = append(out, normalizePlayer(p))
	}
	slices.SortFunc(out, func(a, b engine.Player) int { return a.ID - b.ID })
	return out, nil
}

func (r *Redis) GetOperator(ctx context.Context) (engine.Operator, error) {
	raw, err := r.rdb.Get(ctx, r.operatorKey()).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return engine.NewOperator(), nil
		}
		return engine.Operator{}, errs.Wrap(err, "get operator failed")
	}
	var op engine.Operator
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		return engine.Operator{}, errs.Wrap(err, "unmarshal operator failed")
	}
	return normalizeOperator(op), nil
}

func (r *Redis) UpdateOperator(ctx context.Context, op engine.Operator) error {
	data, err := json.Marshal(normalizeOperator(op))
	if err != nil {
		return errs.Wrap(err, "marshal operator failed")
	}
	if err := r.rdb.Set(ctx, r.operatorKey(), data, 0).Err(); err != nil {
		return errs.Wrap(err, "set operator failed")
	}
	return nil
}

// Flush 刪除本 prefix 下的所有 key（測試用）。
func (r *Redis) Flush(ctx context.Context) error {
	return r.rdb.Del(ctx, r.playersKey(), r.nameKey(), r.operatorKey()).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) hgetPlayer(ctx context.Context, field string) (engine.Player, error) {
	raw, err := r.rdb.HGet(ctx, r.playersKey(), field).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return engine.Player{}, errs.ErrNotFound.WithExtra("player id " + field)
		}
		return engine.Player{}, errs.Wrap(err, "hget player failed")
	}
	var p engine.Player
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return engine.Player{}, errs.Wrap(err, "unmarshal player failed")
	}
	return normalizePlayer(p), nil
}
