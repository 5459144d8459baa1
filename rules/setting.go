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

// Package rules 描述一款樂透的遊戲規則：號碼池、選號數、票價、起始餘額、獎金表與營運抽成。
package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zintix-labs/lottolab/errs"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Setting 包含一局樂透所需的所有規則設定。
type Setting struct {
	Name              string      `yaml:"name"                json:"name"`
	PoolSize          int         `yaml:"pool_size"           json:"pool_size"`
	PickCount         int         `yaml:"pick_count"          json:"pick_count"`
	TicketPrice       int         `yaml:"ticket_price"        json:"ticket_price"`
	InitialBalance    int         `yaml:"initial_balance"     json:"initial_balance"`
	OperatorMarginPct int         `yaml:"operator_margin_pct" json:"operator_margin_pct"`
	PrizeTable        map[int]int `yaml:"prize_table"         json:"prize_table"`
}

// Default 回傳內嵌的 5/39 預設規則。內嵌檔案在編譯期固定，解析失敗屬程式錯誤。
func Default() *Setting {
	s, err := FromYAML(defaultYAML)
	if err != nil {
		panic(err)
	}
	return s
}

// FromYAML 讀取 YAML 設定並執行基本檢查後回傳。
func FromYAML(data []byte) (*Setting, error) {
	s := &Setting{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshal rule yaml")
	}
	if err := s.Valid(); err != nil {
		return nil, errs.Wrap(err, "rule setting invalid")
	}
	return s, nil
}

// FromJSON 讀取 JSON 設定並執行基本檢查後回傳。
func FromJSON(data []byte) (*Setting, error) {
	s := &Setting{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshal rule json")
	}
	if err := s.Valid(); err != nil {
		return nil, errs.Wrap(err, "rule setting invalid")
	}
	return s, nil
}

// Load 依副檔名（.yaml/.yml/.json）從 fsys 讀取規則檔。
func Load(fsys fs.FS, name string) (*Setting, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Sprintf("read rule file failed: %s", name))
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FromYAML(raw)
	case ".json":
		return FromJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported rule format: %q", name))
	}
}

// Valid 執行最基本的設定檔檢查。
func (s *Setting) Valid() error {
	if strings.TrimSpace(s.Name) == "" {
		return errs.NewFatal("rule name required")
	}
	if s.PoolSize < 1 {
		return errs.Fatalf("rule %s: pool_size must > 0", s.Name)
	}
	if s.PickCount < 1 || s.PickCount > s.PoolSize {
		return errs.Fatalf("rule %s: pick_count must be in [1,%d]", s.Name, s.PoolSize)
	}
	if s.TicketPrice < 1 {
		return errs.Fatalf("rule %s: ticket_price must > 0", s.Name)
	}
	if s.InitialBalance < 0 {
		return errs.Fatalf("rule %s: initial_balance must not be negative", s.Name)
	}
	if s.OperatorMarginPct < 0 || s.OperatorMarginPct > 100 {
		return errs.Fatalf("rule %s: operator_margin_pct must be in [0,100]", s.Name)
	}
	for hits, prize := range s.PrizeTable {
		if hits < 0 || hits > s.PickCount {
			return errs.Fatalf("rule %s: prize_table hits %d out of [0,%d]", s.Name, hits, s.PickCount)
		}
		if prize < 0 {
			return errs.Fatalf("rule %s: prize for %d hits must not be negative", s.Name, hits)
		}
	}
	return nil
}

// Prize 查表回傳中 hits 個號碼的獎金；表中未列出的命中數一律為 0。
func (s *Setting) Prize(hits int) int {
	return s.PrizeTable[hits]
}

// OperatorProfit 回傳單筆獎金對應的營運抽成（整數除法，無條件捨去）。
func (s *Setting) OperatorProfit(prize int) int {
	return prize * s.OperatorMarginPct / 100
}

// PayingHits 回傳有獎金的命中數（由小到大）。
func (s *Setting) PayingHits() []int {
	out := make([]int, 0, len(s.PrizeTable))
	for h, p := range s.PrizeTable {
		if p > 0 {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return out
}
