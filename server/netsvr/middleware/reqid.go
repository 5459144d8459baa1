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

package middleware

import (
	"context"
	"net/http"
	"strings"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxReqIDLen = 128

// RequestID 沿用呼叫端帶來的 X-Request-Id，沒有（或過長）時產生 uuid，並回寫到回應標頭。
// id 存在 chi 的 RequestIDKey 下，chi 的其他 middleware 也讀得到。
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(chimid.RequestIDHeader))
		if id == "" || len(id) > maxReqIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(chimid.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), chimid.RequestIDKey, id)))
	})
}

func GetReqId(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}
