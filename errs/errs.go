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

package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLevel 錯誤嚴重度。Fatal 為系統問題；Warn 為請求或業務上可恢復的拒絕；Log 只需記錄。
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

func (l ErrLevel) String() string {
	switch l {
	case Fatal:
		return "fatal"
	case Warn:
		return "warn"
	case Log:
		return "log"
	}
	return ""
}

// ErrLv 同 l.String()。
func ErrLv(l ErrLevel) string { return l.String() }

// Kind 標記業務錯誤的種類，讓上層（HTTP 邊界、session）不必解析字串就能分辨。
//
// Kind 為空字串時代表「未分類」，errors.Is 只會比對指標本身。
type Kind string

const (
	KindMissingPlayerName   Kind = "missing_player_name"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindGateClosed          Kind = "gate_closed"
	KindInsufficientTickets Kind = "insufficient_tickets"
	KindInvalidTicketCount  Kind = "invalid_ticket_count"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindMethodNotAllowed    Kind = "method_not_allowed"
)

// 哨兵錯誤：一律是 Warn，可恢復，不會改動任何狀態。
var (
	ErrMissingPlayerName   = newKind(KindMissingPlayerName, "please enter your name")
	ErrInsufficientFunds   = newKind(KindInsufficientFunds, "insufficient balance to buy tickets")
	ErrGateClosed          = newKind(KindGateClosed, "purchase gate is closed for this round")
	ErrInsufficientTickets = newKind(KindInsufficientTickets, "buy enough tickets before starting the draw")
	ErrInvalidTicketCount  = newKind(KindInvalidTicketCount, "ticket count must be at least 1")
	ErrNotFound            = newKind(KindNotFound, "record not found")
	ErrConflict            = newKind(KindConflict, "record already exists")
	ErrMethodNotAllowed    = newKind(KindMethodNotAllowed, "method not allowed")
)

// E lottolab 的錯誤型別。Extra 為呼叫端附加的上下文，Cause 為被包裝的下層錯誤。
type E struct {
	Message string
	Extra   string
	Kind    Kind
	Cause   error
	ErrLv   ErrLevel
}

// Error 格式："errlv=<level> <message>[ | extra: <extra>][ (cause: <cause>)]"
func (e *E) Error() string {
	var sb strings.Builder
	sb.WriteString("errlv=")
	sb.WriteString(e.ErrLv.String())
	sb.WriteByte(' ')
	sb.WriteString(e.Message)
	if e.Extra != "" {
		sb.WriteString(" | extra: ")
		sb.WriteString(e.Extra)
	}
	if e.Cause != nil {
		sb.WriteString(" (cause: ")
		sb.WriteString(e.Cause.Error())
		sb.WriteByte(')')
	}
	return sb.String()
}

func (e *E) Unwrap() error { return e.Cause }

// Is 同 Kind 即相符，WithExtra 的副本仍能以 errors.Is(err, ErrGateClosed) 命中。
// 沒有 Kind 的 *E 只比對指標。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	return ok && t.Kind != "" && e.Kind == t.Kind
}

// WithExtra 回傳副本，哨兵本身不變。
func (e *E) WithExtra(extra string) *E {
	c := *e
	c.Extra = extra
	return &c
}

func New(errLv ErrLevel, msg string) *E { return &E{Message: msg, ErrLv: errLv} }
func NewFatal(msg string) *E            { return New(Fatal, msg) }
func NewWarn(msg string) *E             { return New(Warn, msg) }
func NewLog(msg string) *E              { return New(Log, msg) }

func Fatalf(format string, a ...any) *E { return NewFatal(fmt.Sprintf(format, a...)) }
func Warnf(format string, a ...any) *E  { return NewWarn(fmt.Sprintf(format, a...)) }

func newKind(k Kind, msg string) *E {
	e := NewWarn(msg)
	e.Kind = k
	return e
}

// Wrap 以 msg 包裝 cause。cause 鏈上有 *E 時沿用其等級與 Kind，否則（標準庫、第三方錯誤）視為 Fatal。
func Wrap(cause error, msg string) *E {
	w := &E{Message: msg, Cause: cause, ErrLv: Fatal}
	if e, ok := AsErr(cause); ok {
		w.ErrLv, w.Kind = e.ErrLv, e.Kind
	}
	return w
}

func AsErr(err error) (*E, bool) {
	var e *E
	ok := errors.As(err, &e)
	return e, ok
}

// LevelOf 錯誤鏈上第一個 *E 的等級；沒有 *E 時為 None。
func LevelOf(err error) ErrLevel {
	if e, ok := AsErr(err); ok {
		return e.ErrLv
	}
	return None
}

// KindOf 錯誤鏈上第一個帶 Kind 的 *E 的 Kind。
func KindOf(err error) Kind {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*E); ok && e.Kind != "" {
			return e.Kind
		}
	}
	return ""
}
