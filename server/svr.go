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

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zintix-labs/lottolab"
	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/gateway"
	"github.com/zintix-labs/lottolab/server/api"
	"github.com/zintix-labs/lottolab/server/app"
	"github.com/zintix-labs/lottolab/server/netsvr"
	"github.com/zintix-labs/lottolab/server/svrcfg"
	"github.com/zintix-labs/lottolab/session"
	"github.com/zintix-labs/lottolab/store"
)

// Assemble 依 FileConfig 組裝 SvrCfg：規則、儲存端（memory / redis）或遠端 gateway。
//
// Gateway 非空時不建立本地儲存端，session 的寫入全部送往遠端儲存 API。
func Assemble(ctx context.Context, fc svrcfg.FileConfig, log *slog.Logger) (*svrcfg.SvrCfg, error) {
	lab, err := lottolab.NewFromFile(core.Default(), fc.Rules)
	if err != nil {
		return nil, errs.Wrap(err, "load rules failed: "+fc.Rules)
	}
	sc := &svrcfg.SvrCfg{
		Log:     log,
		Addr:    fc.Addr,
		Lab:     lab,
		Session: session.ManagerConfig{TTL: fc.Session.TTL, Sweep: fc.Session.Sweep},
		Persist: fc.Persist,
		Sim:     fc.Sim,
	}
	if u := strings.TrimSpace(fc.Gateway); u != "" {
		c, err := gateway.NewClient(u, &http.Client{Timeout: fc.Persist.Timeout})
		if err != nil {
			return nil, err
		}
		sc.Gateway = c
		return sc, nil
	}
	kind, err := store.ParseKind(fc.Store)
	if err != nil {
		return nil, err
	}
	switch kind {
	case store.KindRedis:
		timeout := fc.Persist.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		r, err := store.DialRedis(ctx, fc.Redis, timeout)
		if err != nil {
			return nil, err
		}
		sc.Store = r
	default:
		sc.Store = store.NewMemory()
	}
	return sc, nil
}

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrCfg（包含必要依賴，例如 logger）。
//  2. 建立 Persister、session Manager 與 HTTP server（netsvr）。
//  3. 註冊路由與 middleware（api.RegisterRoutes）。
//  4. 啟動 app.Run() 並回傳停止原因。
//
// 關閉順序與註冊順序相反：server → manager → persister → store。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 與 Run() 相同，但允許呼叫端注入自訂的 NetSvr。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("default server is not ready")
	}
	log := sCfg.Log

	per := session.NewPersister(log, sCfg.Persist.Buffer, sCfg.Persist.Timeout)
	mgr, err := session.NewManager(sCfg.Lab.Rule(), sCfg.Lab.PRNGFactory(), sCfg.Gateway, per, log, sCfg.Session)
	if err != nil {
		return err
	}
	if err := api.RegisterRoutes(svr, sCfg, mgr); err != nil {
		return err
	}

	a := app.New().WithLogger(log)
	if sCfg.Store != nil {
		a.Register(app.CloseOnShutdown("store", sCfg.Store))
	}
	a.Register(per)
	a.Register(mgr)
	a.Register(svr)

	log.Info("[lottolab] listening",
		slog.String("addr", sCfg.Addr),
		slog.String("rule", sCfg.Lab.Rule().Name),
	)
	if err := a.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}
