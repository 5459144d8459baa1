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
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/zintix-labs/lottolab"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/gateway"
	"github.com/zintix-labs/lottolab/server/logger"
	"github.com/zintix-labs/lottolab/session"
	"github.com/zintix-labs/lottolab/store"
	"gopkg.in/yaml.v3"
)

// FileConfig 對應 YAML 設定檔；cmd/svr 的旗標會覆寫同名欄位。
type FileConfig struct {
	Addr    string            `yaml:"addr"`
	LogMode string            `yaml:"log_mode"`
	Rules   string            `yaml:"rules"`   // 規則檔路徑；空字串使用內嵌預設規則
	Store   string            `yaml:"store"`   // memory | redis
	Gateway string            `yaml:"gateway"` // 遠端儲存 API 的 base URL；非空時不建立本地儲存端
	Redis   store.RedisConfig `yaml:"redis"`
	Session SessionConfig     `yaml:"session"`
	Persist PersistConfig     `yaml:"persist"`
	Sim     SimConfig         `yaml:"sim"`
}

type SessionConfig struct {
	TTL   time.Duration `yaml:"ttl"`
	Sweep time.Duration `yaml:"sweep"`
}

type PersistConfig struct {
	Buffer  int           `yaml:"buffer"`
	Timeout time.Duration `yaml:"timeout"`
}

type SimConfig struct {
	MaxRounds int `yaml:"max_rounds"`
	MaxWorker int `yaml:"max_worker"`
}

// DefaultFileConfig 所有欄位的預設值。
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Addr:    ":8039",
		LogMode: "dev",
		Store:   string(store.KindMemory),
		Session: SessionConfig{TTL: session.DefaultManagerConfig.TTL, Sweep: session.DefaultManagerConfig.Sweep},
		Persist: PersistConfig{Buffer: 1024, Timeout: 5 * time.Second},
		Sim:     SimConfig{MaxRounds: 1_000_000, MaxWorker: 8},
	}
}

// ParseFile 以預設值為底解析 YAML；檔案中沒寫的欄位保留預設。
func ParseFile(data []byte) (FileConfig, error) {
	fc := DefaultFileConfig()
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, errs.Wrap(err, "failed to unmarshal server config")
	}
	return fc, nil
}

// LoadFile path 為空時直接回傳預設值。
func LoadFile(path string) (FileConfig, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultFileConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultFileConfig(), errs.Wrap(err, "read server config failed: "+path)
	}
	return ParseFile(raw)
}

// SvrCfg 組裝好的 server 依賴。Store 與 Gateway 至少要有一個。
type SvrCfg struct {
	Log     *slog.Logger
	Addr    string
	Lab     *lottolab.Lab
	Store   store.Store     // 本地儲存端；使用遠端 gateway 時為 nil
	Gateway gateway.Gateway // session 寫入的目標；nil 時使用 Store
	Session session.ManagerConfig
	Persist PersistConfig
	Sim     SimConfig
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	if sc.Gateway == nil {
		if sc.Store == nil {
			return errs.NewFatal("store or gateway is required")
		}
		sc.Gateway = sc.Store
	}
	if sc.Addr == "" {
		sc.Addr = DefaultFileConfig().Addr
	}
	def := DefaultFileConfig()
	if sc.Persist.Buffer <= 0 {
		sc.Persist.Buffer = def.Persist.Buffer
	}
	if sc.Persist.Timeout <= 0 {
		sc.Persist.Timeout = def.Persist.Timeout
	}
	// 1 <= MaxWorker <= 32、1 <= MaxRounds <= 10,000,000
	// for 資源管理
	sc.Sim.MaxWorker = min(32, max(1, sc.Sim.MaxWorker))
	if sc.Sim.MaxRounds <= 0 {
		sc.Sim.MaxRounds = def.Sim.MaxRounds
	}
	sc.Sim.MaxRounds = min(10_000_000, sc.Sim.MaxRounds)
	return nil
}
