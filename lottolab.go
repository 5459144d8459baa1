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

// Package lottolab 組裝規則與亂數來源，提供開獎機台與模擬器。
package lottolab

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/rules"
)

// Lab 綁定一份規則與 PRNG 工廠；建立後唯讀，可在多個 goroutine 共用。
type Lab struct {
	rule *rules.Setting
	pf   core.PRNGFactory
}

// New pf 為 nil 時使用預設 PCG64；rule 為 nil 時使用內嵌的預設規則。
func New(pf core.PRNGFactory, rule *rules.Setting) (*Lab, error) {
	if pf == nil {
		pf = core.Default()
	}
	if rule == nil {
		rule = rules.Default()
	}
	if err := rule.Valid(); err != nil {
		return nil, err
	}
	return &Lab{rule: rule, pf: pf}, nil
}

// NewFromFS 由 fsys 讀取規則檔（yaml/json）後建立 Lab。
func NewFromFS(pf core.PRNGFactory, fsys fs.FS, name string) (*Lab, error) {
	if fsys == nil {
		return nil, errs.NewFatal("rule fs required")
	}
	rule, err := rules.Load(fsys, name)
	if err != nil {
		return nil, err
	}
	return New(pf, rule)
}

// NewFromFile 讀取本機規則檔；path 為空白時使用內嵌預設規則。
func NewFromFile(pf core.PRNGFactory, path string) (*Lab, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return New(pf, nil)
	}
	return NewFromFS(pf, os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

func (l *Lab) Rule() *rules.Setting {
	return l.rule
}

func (l *Lab) PRNGFactory() core.PRNGFactory {
	return l.pf
}

// NewMachine 以隨機 seed 建立開獎機台。
func (l *Lab) NewMachine() (*Machine, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newMachineWithSeed(l.rule, l.pf, seed)
}

// NewMachineWithSeed 以指定 seed 建立開獎機台（可重現）。
func (l *Lab) NewMachineWithSeed(seed int64) (*Machine, error) {
	return newMachineWithSeed(l.rule, l.pf, seed)
}

// NewSimulator 以隨機 seed 建立模擬器。
func (l *Lab) NewSimulator() (*Simulator, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newSimulatorWithSeed(l.rule, l.pf, seed)
}

// NewSimulatorWithSeed 同一個 seed 與參數，模擬結果完全相同。
func (l *Lab) NewSimulatorWithSeed(seed int64) (*Simulator, error) {
	return newSimulatorWithSeed(l.rule, l.pf, seed)
}
