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
	"testing"
)

func TestKindMatchSurvivesExtraAndWrap(t *testing.T) {
	e := ErrGateClosed.WithExtra("player=alice")
	if !errors.Is(e, ErrGateClosed) {
		t.Fatalf("expected copy with extra to match sentinel")
	}
	if errors.Is(e, ErrInsufficientFunds) {
		t.Fatalf("different kinds must not match")
	}
	w := Wrap(e, "buy tickets")
	if !errors.Is(w, ErrGateClosed) {
		t.Fatalf("expected wrapped error to match sentinel")
	}
	if w.ErrLv != Warn {
		t.Fatalf("wrap must keep warn level, got %s", ErrLv(w.ErrLv))
	}
	if KindOf(w) != KindGateClosed {
		t.Fatalf("unexpected kind %q", KindOf(w))
	}
	if ErrGateClosed.Extra != "" {
		t.Fatalf("sentinel must not be mutated")
	}
}

func TestWrapForeignErrorIsFatal(t *testing.T) {
	base := fmt.Errorf("dial tcp: refused")
	w := Wrap(base, "get operator")
	if w.ErrLv != Fatal {
		t.Fatalf("expected fatal, got %s", ErrLv(w.ErrLv))
	}
	if !errors.Is(w, base) {
		t.Fatalf("expected cause to be reachable")
	}
	if KindOf(w) != "" {
		t.Fatalf("expected no kind")
	}
	if !strings.Contains(w.Error(), "errlv=fatal get operator") {
		t.Fatalf("unexpected message: %s", w.Error())
	}
}

func TestUnkindedErrorsMatchByPointerOnly(t *testing.T) {
	a := NewWarn("a")
	b := NewWarn("a")
	if errors.Is(a, b) {
		t.Fatalf("errors without kind must not match by value")
	}
	if !errors.Is(a, a) {
		t.Fatalf("same pointer must match")
	}
}
