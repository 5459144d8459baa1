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

// Package netsvr 隔離 HTTP 框架。handler 只面向 NetRouter；只有組裝層拿得到 NetSvr 的啟停。
package netsvr

import (
	"net/http"
	"time"

	"github.com/zintix-labs/lottolab/server/app"
)

// NetSvr 可註冊路由，也可交給 app.App 管理生命週期。
type NetSvr interface {
	NetRouter
	app.Component
}

// NetRouter 只有路由操作。Group 的回呼同樣只拿到 NetRouter。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)
	Mount(path string, h http.Handler)

	Group(path string, fn func(NetRouter))
}

// Timeouts http.Server 的逾時設定。Write 必須涵蓋 /v1/sim 的最長處理時間。
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

var DefaultTimeouts = Timeouts{
	Read:  10 * time.Second,
	Write: 35 * time.Second,
	Idle:  2 * time.Minute,
}
