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
	"flag"
	"io"
	"log"
	"os"

	"github.com/zintix-labs/lottolab"
	"github.com/zintix-labs/lottolab/core"
	"github.com/zintix-labs/lottolab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	rules     string
	worker    int
	player    int
	balance   int
	tickets   int
	rounds    int
	seed      int64
	format    string
	pprofmode string
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.rules, "rules", "", "rule setting file (yaml/json); empty uses the built-in lotto-5-39")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.player, "players", 1, "number of players; > 1 simulates player sessions")
	flag.IntVar(&cfg.balance, "balance", 0, "initial balance per player (0 = rule initial balance)")
	flag.IntVar(&cfg.tickets, "tickets", 1, "tickets per round")
	flag.IntVar(&cfg.rounds, "rounds", 1_000_000, "rounds per worker (or per player)")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.format, "format", "table", "report format: table|json|yaml")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illeagel -> default seed
	if cfg.seed < 1 {
		seed, err := core.NewSeed()
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() error {
	lab, err := lottolab.NewFromFile(core.Default(), cfg.rules)
	if err != nil {
		return err
	}
	cfg.valid(lab) // 基本檢查

	format, err := stats.ParseFormat(cfg.format)
	if err != nil {
		return err
	}
	s, err := lab.NewSimulatorWithSeed(cfg.seed)
	if err != nil {
		return err
	}
	// 至此確保可執行
	table := format == stats.FormatTable
	showpb := table
	out := io.Writer(os.Stdout)
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	name := lab.Rule().Name

	if cfg.player == 1 { // 純機台模擬
		var st *stats.RoundReport
		if cfg.worker == 1 { // 單線程
			if table {
				p.Printf("%s[RULE:%s] [TICKETS:%d] [ROUNDS:%d] [SEED:%d]%s\n", green, name, cfg.tickets, cfg.rounds, cfg.seed, reset)
			}
			rep, used, err := s.Sim(cfg.rounds, cfg.tickets, showpb)
			if err != nil {
				return err
			}
			if table {
				rep.StdOut(used)
				return nil
			}
			st = rep
		} else {
			if table {
				p.Printf("%s[WORKERS:%d] [RULE:%s] [TICKETS:%d] [ROUNDS:%d] [SEED:%d]%s\n", green, cfg.worker, name, cfg.tickets, cfg.worker*cfg.rounds, cfg.seed, reset)
			}
			rep, used, err := s.SimMP(cfg.rounds, cfg.tickets, cfg.worker, showpb) // 併發
			if err != nil {
				return err
			}
			if table {
				rep.StdOut(used)
				return nil
			}
			st = rep
		}
		return st.WriteWith(out, format)
	}

	// 模擬多玩家體驗
	if table {
		p.Printf("%s[WORKERS:%d] [RULE:%s] [PLAYERS:%d BALANCE:%d TICKETS:%d ROUNDS:%d]%s\n", green, cfg.worker, name, cfg.player, cfg.balance, cfg.tickets, cfg.rounds, reset)
	}
	st, est, used, err := s.SimPlayers(cfg.worker, cfg.player, cfg.balance, cfg.tickets, cfg.rounds, showpb)
	if err != nil {
		return err
	}
	if table {
		st.StdOut(used)
		est.Out()
		return nil
	}
	if err := st.WriteWith(out, format); err != nil {
		return err
	}
	return stats.Render(out, format, est)
}

func (cfg *config) valid(lab *lottolab.Lab) {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}
	if cfg.tickets < 1 {
		log.Fatal("value err : tickets must > 0")
	}

	// 玩家檢查
	// 玩家數量 > 0
	if cfg.player < 1 {
		log.Fatal("value err : players must > 0")
	}
	// 玩家數量太多 resize
	if cfg.player > 100000 {
		p.Printf("too much players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100000
	}
	if cfg.balance == 0 {
		cfg.balance = lab.Rule().InitialBalance
	}
	// 模擬玩家時，帶入資金至少要夠買一局
	if cfg.player > 1 && cfg.balance < cfg.tickets*lab.Rule().TicketPrice {
		log.Fatal("value err : balance must cover one round")
	}

	// 局數檢查
	if cfg.rounds < 1 {
		log.Fatal("value err : rounds must > 0")
	}

	// 模擬玩家的時候，每個玩家最高不超過15000局(無意義)
	if cfg.player > 1 && cfg.rounds > 15000 {
		p.Printf("too much rounds for each players : %d resized to 15k rounds for each player\n", cfg.rounds)
		cfg.rounds = 15000
	}
}
