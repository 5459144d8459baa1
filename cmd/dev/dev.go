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

// cmd/dev 本機開發用：memory 儲存端、dev log，服務起來後開啟瀏覽器到 /dev。
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/zintix-labs/lottolab/errs"
	"github.com/zintix-labs/lottolab/server"
	"github.com/zintix-labs/lottolab/server/logger"
	"github.com/zintix-labs/lottolab/server/svrcfg"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5808", "listen address")
	rules := flag.String("rules", "", "rule setting file (yaml/json); empty uses the built-in 5/39 rule")
	browser := flag.Bool("browser", true, "open the dev panel in a browser")
	flag.Parse()

	log, ah := logger.NewAsync(1024, logger.ModeDev)
	defer ah.Close()

	fc := svrcfg.DefaultFileConfig()
	fc.Addr, fc.Rules = *addr, *rules
	sc, err := server.Assemble(context.Background(), fc, log)
	if err != nil {
		log.Error("assemble dev server failed", slog.Any("err", err))
		ah.Close()
		os.Exit(1)
	}

	if *browser {
		go openWhenReady(log, *addr, "/dev")
	}
	if err := server.Run(sc); err != nil {
		ah.Close()
		os.Exit(1)
	}
}

func openWhenReady(log *slog.Logger, addr, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := waitListening(ctx, addr); err != nil {
		log.Warn("dev server not reachable", slog.Any("err", err))
		return
	}
	url := "http://" + dialAddr(addr) + path
	if err := openBrowser(url); err != nil {
		log.Warn("open browser failed, visit manually", slog.String("url", url), slog.Any("err", err))
	}
}

// waitListening 每 50ms 撥一次，直到連得上或 ctx 結束。
func waitListening(ctx context.Context, addr string) error {
	var d net.Dialer
	target := dialAddr(addr)
	for {
		conn, err := d.DialContext(ctx, "tcp", target)
		if err == nil {
			return conn.Close()
		}
		select {
		case <-ctx.Done():
			return errs.Wrap(ctx.Err(), "waiting for "+target)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// dialAddr ":5808" 這類只有埠號的位址改撥 127.0.0.1。
func dialAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" || host == "0.0.0.0" || host == "::" {
		return net.JoinHostPort("127.0.0.1", port)
	}
	return addr
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	}
	return exec.Command("xdg-open", url).Start()
}
