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

// Package gateway 定義玩家與營運方文件的持久化介面，並提供走 REST JSON 的 HTTP 實作。
//
// 介面刻意保持最小：只有 session 在遊戲流程中需要的五個動作。
// 儲存端本身（store 套件）也實作同一個介面，因此 session 可以直接掛本地儲存，
// 或透過 Client 連到遠端的 store API。
package gateway

import (
	"context"

	"github.com/zintix-labs/lottolab/engine"
)

// Gateway 玩家 / 營運方文件的讀寫。
//
// GetPlayerByName 找不到時回傳 (nil, nil)，不是錯誤。
// GetOperator 在儲存端還沒有營運方文件時回傳初始營運方。
type Gateway interface {
	GetPlayerByName(ctx context.Context, name string) (*engine.Player, error)
	CreatePlayer(ctx context.Context, p engine.Player) error
	UpdatePlayer(ctx context.Context, id int, p engine.Player) error
	GetOperator(ctx context.Context) (engine.Operator, error)
	UpdateOperator(ctx context.Context, op engine.Operator) error
}
