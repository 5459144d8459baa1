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

package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/lottolab/metrics"
)

// Job 一筆持久化工作。
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Persister 把持久化寫入移出請求路徑：
//   - Enqueue 不阻塞：只做 channel enqueue，滿了就丟棄並計數。
//   - 單一背景 worker 依序執行，錯誤只記 log，不重試。
//   - Close 後不再接受新工作，並把已排入的工作執行完。
//
// 同一個 Game 的寫入因此保持送出順序。
type Persister struct {
	ch      chan Job
	closed  chan struct{}
	mu      sync.RWMutex // Enqueue 持讀鎖送出；Close 持寫鎖標記 shut，之後不再有送出
	shut    bool
	wg      sync.WaitGroup
	log     *slog.Logger
	timeout time.Duration

	dropCount atomic.Uint64
	doneCount atomic.Uint64
	failCount atomic.Uint64
}

// NewPersister buf 控制隊列大小；timeout 為每筆工作的執行上限。
func NewPersister(log *slog.Logger, buf int, timeout time.Duration) *Persister {
	if log == nil {
		log = slog.Default()
	}
	if buf <= 0 {
		buf = 1024
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p := &Persister{
		ch:      make(chan Job, buf),
		closed:  make(chan struct{}),
		log:     log,
		timeout: timeout,
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

// Enqueue 回傳是否成功排入。
func (p *Persister) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.shut {
		p.drop(job)
		return false
	}
	select {
	case p.ch <- job:
		return true
	default:
		p.drop(job)
		return false
	}
}

func (p *Persister) drop(job Job) {
	p.dropCount.Add(1)
	metrics.RecordPersist("dropped")
	p.log.Warn("persist job dropped", slog.String("job", job.Name))
}

func (p *Persister) Dropped() uint64 { return p.dropCount.Load() }
func (p *Persister) Done() uint64    { return p.doneCount.Load() }
func (p *Persister) Failed() uint64  { return p.failCount.Load() }

// Close 停止接收並 drain 已排入的工作。可重複呼叫。
func (p *Persister) Close() {
	p.mu.Lock()
	if !p.shut {
		p.shut = true
		close(p.closed)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Run 讓 Persister 以 app.Component 形式掛在 App 上：阻塞到 Close 為止。
func (p *Persister) Run() error {
	<-p.closed
	return nil
}

// Shutdown 關閉並等待 drain；ctx 到期時先返回，worker 仍會把剩下的工作跑完。
func (p *Persister) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.ch:
			p.exec(job)
		case <-p.closed:
			for {
				select {
				case job := <-p.ch:
					p.exec(job)
				default:
					return
				}
			}
		}
	}
}

func (p *Persister) exec(job Job) {
	if job.Run == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := job.Run(ctx); err != nil {
		p.failCount.Add(1)
		metrics.RecordPersist("error")
		p.log.Error("persist job failed", slog.String("job", job.Name), slog.Any("err", err))
		return
	}
	p.doneCount.Add(1)
	metrics.RecordPersist("ok")
}
