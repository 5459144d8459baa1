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

package api

import (
	"log/slog"
	"net/http"

	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/metrics"
	"github.com/zintix-labs/lottolab/server/api/dev"
	"github.com/zintix-labs/lottolab/server/api/storeapi"
	v1 "github.com/zintix-labs/lottolab/server/api/v1"
	"github.com/zintix-labs/lottolab/server/netsvr"
	"github.com/zintix-labs/lottolab/server/netsvr/middleware"
	"github.com/zintix-labs/lottolab/server/svrcfg"
	"github.com/zintix-labs/lottolab/session"
)

// RegisterRoutes 註冊
//
// sCfg 需先通過 Vaild()；mgr 為已建立的 session manager（生命週期由呼叫端管理）。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, mgr *session.Manager) error {
	if sCfg == nil || mgr == nil {
		return errs.NewFatal("server config and session manager are required")
	}
	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	registerOps(svr)                  // 2. healthz / metrics
	if sCfg.Store != nil {            // 3. 本地儲存端才對外提供儲存 API
		h, err := storeapi.NewHandler(sCfg.Store, sCfg.Log)
		if err != nil {
			return err
		}
		h.Register(svr)
	}
	d, err := dev.NewHandler(sCfg.Lab, sCfg.Log) // 4. 開發者工具
	if err != nil {
		return err
	}
	d.Register(svr)
	return registerV1API(svr, sCfg, mgr) // 5. 註冊 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Metrics)
	svr.Use(middleware.CompressionExcept("/metrics"))
	// 放在壓縮之內：panic 後的錯誤回應仍經過同一個壓縮器
	svr.Use(middleware.Recover(log))
}

func registerOps(svr netsvr.NetRouter) {
	svr.Get("/healthz", healthz)
	svr.Mount("/metrics", metrics.Handler())
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, mgr *session.Manager) error {
	sh, err := v1.NewSessionHandler(mgr, sCfg.Log)
	if err != nil {
		return err
	}
	oh, err := v1.NewOperatorHandler(sCfg.Store, sCfg.Gateway, sCfg.Log)
	if err != nil {
		return err
	}
	s, err := v1.NewSimHandler(sCfg.Lab, sCfg.Sim, sCfg.Log)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		sh.Register(vOne)
		vOne.Get("/operator/players", oh.Players)

		vOne.Get("/sim", s.Sim)
		vOne.Post("/sim", s.Sim)
		vOne.Post("/simplayers", s.SimPlayers)
	})
	return nil
}
