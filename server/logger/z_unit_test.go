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

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want LogMode
		ok   bool
	}{
		{"", ModeDev, true},
		{"DEV", ModeDev, true},
		{" prod ", ModeProd, true},
		{"silence", ModeSilence, true},
		{"verbose", ModeDev, false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseMode(c.in)
			if (err == nil) != c.ok {
				t.Fatalf("ParseMode(%q) err = %v", c.in, err)
			}
			if c.ok && got != c.want {
				t.Fatalf("ParseMode(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
	if ModeProd.String() != "prod" || LogMode(9).String() != "unknown" {
		t.Fatalf("unexpected mode names")
	}
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewTextHandler(&buf, nil), 64)
	log := slog.New(ah).With(slog.String("session", "s1"))
	for i := 0; i < 10; i++ {
		log.Info("round settled", slog.Int("round", i))
	}
	ah.Close()
	log.Info("after close")

	out := buf.String()
	if strings.Count(out, "round settled") != 10 || !strings.Contains(out, "session=s1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "after close") || ah.Dropped() != 1 {
		t.Fatalf("records after close must be dropped, dropped=%d", ah.Dropped())
	}
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	ah := NewAsyncHandler(blockingHandler{release: block}, 1)
	log := slog.New(ah)
	for i := 0; i < 10; i++ {
		log.Info("draw")
	}
	close(block)
	ah.Close()
	ah.Close()
	// 最多一筆在 worker 手上、一筆在佇列裡
	if ah.Dropped() < 8 {
		t.Fatalf("expected drops with a full queue, got %d", ah.Dropped())
	}
}

func TestSilenceModeDiscards(t *testing.T) {
	h := ModeSilence.Handler()
	if h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("silence mode must not enable any level")
	}
	if !ModeDev.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("dev mode must log debug")
	}
}

type blockingHandler struct {
	release chan struct{}
}

func (b blockingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (b blockingHandler) Handle(context.Context, slog.Record) error {
	<-b.release
	return nil
}
func (b blockingHandler) WithAttrs([]slog.Attr) slog.Handler { return b }
func (b blockingHandler) WithGroup(string) slog.Handler      { return b }
