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

//go:build ignore

// ops.go 取代 Makefile 的跨平台任務腳本。
//
// Usage:
//
//	go run scripts/ops.go test         # 只列出 ok / FAIL
//	go run scripts/ops.go test-all     # 全部套件 + coverage
//	go run scripts/ops.go test-detail  # -v，濾掉 [no test files]
//	go run scripts/ops.go test-redis   # 需要 LOTTOLAB_REDIS_ADDR
//	go run scripts/ops.go sim          # 預設規則跑 1,000,000 局（4 workers）
//	go run scripts/ops.go pgo          # cpu profile 後複製成 default.pgo
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ANSI 顏色代碼 (Windows 10+ 的 cmd/powershell 皆支援)
const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

type task struct {
	desc string
	run  func() error
}

var tasks = map[string]task{
	"test":        {"run tests, show ok/FAIL lines", func() error { return testFiltered(summaryLine, "-cover", "-count=1") }},
	"test-all":    {"run tests with coverage", func() error { return goCmd("test", "./...", "-cover") }},
	"test-detail": {"run tests verbosely", func() error { return testFiltered(detailLine, "-v", "-count=1") }},
	"test-redis":  {"run store tests against LOTTOLAB_REDIS_ADDR", testRedis},
	"sim":         {"simulate the default rule", func() error { return goCmd("run", "./cmd/run", "-rounds", "250000", "-worker", "4") }},
	"pgo":         {"cpu profile the simulator into default.pgo", pgo},
}

func main() {
	// 如果沒有送任何參數進來，我們告訴用戶需要帶上 task
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		colorln(colorYellow, "Unknown task: "+os.Args[1])
		usage()
		os.Exit(1)
	}
	if err := t.run(); err != nil {
		colorln(colorRed, err.Error())
		os.Exit(1) // 告訴呼叫端失敗了
	}
}

func usage() {
	fmt.Println("Usage: go run scripts/ops.go [task]")
	for name, t := range tasks {
		fmt.Printf("  %-12s %s\n", name, t.desc)
	}
}

func colorln(color, msg string) {
	fmt.Printf("%s%s%s\n", color, msg, colorReset)
}

func goCmd(args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// testFiltered 清除 test cache 後執行 go test，逐行交給 filter 決定怎麼印。
func testFiltered(filter func(line string), flags ...string) error {
	if err := goCmd("clean", "-testcache"); err != nil {
		return err
	}
	args := append([]string{"test", "./..."}, flags...)
	cmd := exec.Command("go", args...)
	pr, pw := io.Pipe()
	// 編譯錯誤在 stderr，合併才看得到
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start go test: %w", err)
	}
	done := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		done <- err
	}()
	sc := bufio.NewScanner(pr)
	for sc.Scan() {
		filter(sc.Text())
	}
	if err := <-done; err != nil {
		return fmt.Errorf("tests finished with errors")
	}
	return nil
}

func summaryLine(line string) {
	switch {
	case strings.HasPrefix(line, "ok"):
		colorln(colorGreen, line)
	case strings.HasPrefix(line, "FAIL"),
		strings.Contains(line, "build failed"),
		strings.Contains(line, "setup failed"):
		colorln(colorRed, line)
	}
}

func detailLine(line string) {
	switch {
	case strings.Contains(line, "[no test files]"):
	case strings.HasPrefix(line, "ok"):
		colorln(colorGreen, line)
	case strings.HasPrefix(line, "FAIL"):
		colorln(colorRed, line)
	default:
		fmt.Println(line)
	}
}

func testRedis() error {
	if os.Getenv("LOTTOLAB_REDIS_ADDR") == "" {
		return fmt.Errorf("LOTTOLAB_REDIS_ADDR is not set")
	}
	return goCmd("test", "./store/...", "-count=1", "-run", "Redis", "-v")
}

func pgo() error {
	if err := goCmd("run", "./cmd/run", "-rounds", "2000000", "-p", "cpu"); err != nil {
		return err
	}
	b, err := os.ReadFile("build/profiling/cpu.pprof")
	if err != nil {
		return err
	}
	return os.WriteFile("cmd/run/default.pgo", b, 0o644)
}
