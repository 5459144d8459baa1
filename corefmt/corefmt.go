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

// Package corefmt PRNG snapshot 的文字編碼，讓 snapshot 可以放進 JSON / URL 傳遞。
package corefmt

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/zintix-labs/lottolab/errs"
)

// EncodeSnap base64url（無 padding）。
func EncodeSnap(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeSnap 接受有無 padding 的 base64url，前後空白忽略；空字串視為錯誤。
func DecodeSnap(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if s == "" {
		return nil, errs.NewWarn("empty snapshot")
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.NewWarn("snapshot must be base64url: " + err.Error())
	}
	return b, nil
}

// EncodeHex 給 log 使用；snapshot 很短，直接印 hex 比 base64 好對照。
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errs.NewWarn("snapshot must be hex: " + err.Error())
	}
	return b, nil
}
