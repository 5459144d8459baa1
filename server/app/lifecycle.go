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

package app

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Component 長生命週期元件。Run 阻塞到元件停止；Shutdown 要求停止，應尊重 ctx 期限。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Named 可選介面：關閉失敗的 log 以此名稱標示元件。
type Named interface {
	Name() string
}

func nameOf(c Component, i int) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("#%d %T", i, c)
}

// CloseOnShutdown 把只有 Close 的資源（儲存端連線等）接進 App：
// Run 一直阻塞，Shutdown 時才 Close。先註冊就最後關。
func CloseOnShutdown(name string, c io.Closer) Component {
	return &closer{name: name, c: c, stop: make(chan struct{})}
}

type closer struct {
	name string
	c    io.Closer
	stop chan struct{}
	once sync.Once
	err  error
}

func (c *closer) Name() string { return c.name }

func (c *closer) Run() error {
	<-c.stop
	return nil
}

func (c *closer) Shutdown(context.Context) error {
	c.once.Do(func() {
		close(c.stop)
		c.err = c.c.Close()
	})
	return c.err
}
