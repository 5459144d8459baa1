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

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/lottolab/server"
	"github.com/zintix-labs/lottolab/server/logger"
	"github.com/zintix-labs/lottolab/server/svrcfg"
)

// 設定來源優先序：旗標 > 設定檔 > 預設值。
func main() {
	fc, err := loadConfigFromFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	mode, err := logger.ParseMode(fc.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, ah := logger.NewAsync(4096, mode)
	defer ah.Close()

	sCfg, err := server.Assemble(context.Background(), fc, log)
	if err != nil {
		log.Error("assemble server failed", slog.Any("err", err))
		ah.Close()
		os.Exit(1)
	}
	if err := server.Run(sCfg); err != nil {
		ah.Close()
		os.Exit(1)
	}
}

type flags struct {
	config    string
	addr      string
	logMode   string
	store     string
	redisAddr string
	gateway   string
	rules     string
}

// loadConfigFromFlags 先讀 -config 指定的檔案，再以有被明確設定的旗標覆寫。
func loadConfigFromFlags(args []string) (svrcfg.FileConfig, error) {
	f := new(flags)
	fs := flag.NewFlagSet("svr", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "server config file (yaml)")
	fs.StringVar(&f.addr, "addr", "", "listen address, e.g. :8039")
	fs.StringVar(&f.logMode, "log-mode", "", "log mode: dev|prod|silence")
	fs.StringVar(&f.store, "store", "", "storage backend: memory|redis")
	fs.StringVar(&f.redisAddr, "redis-addr", "", "redis address when -store=redis")
	fs.StringVar(&f.gateway, "gateway", "", "remote store API base url; empty uses the local store")
	fs.StringVar(&f.rules, "rules", "", "rule setting file (yaml/json)")
	if err := fs.Parse(args); err != nil {
		return svrcfg.FileConfig{}, err
	}

	fc, err := svrcfg.LoadFile(f.config)
	if err != nil {
		return fc, err
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			fc.Addr = f.addr
		case "log-mode":
			fc.LogMode = f.logMode
		case "store":
			fc.Store = f.store
		case "redis-addr":
			fc.Redis.Addr = f.redisAddr
		case "gateway":
			fc.Gateway = f.gateway
		case "rules":
			fc.Rules = f.rules
		}
	})
	return fc, nil
}
