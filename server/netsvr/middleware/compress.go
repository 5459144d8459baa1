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
	"bufio"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/lottolab/errs"
)

// encoder gzip.Writer 與 zstd.Encoder 共同的操作
type encoder interface {
	io.WriteCloser
	Flush() error
	Reset(io.Writer)
}

// codec 一種 Content-Encoding 與它的 encoder pool。
type codec struct {
	name string
	pool sync.Pool
}

func (c *codec) get(w io.Writer) encoder {
	enc := c.pool.Get().(encoder)
	enc.Reset(w)
	return enc
}

// put 關閉 encoder（寫出收尾資料）後放回 pool。
func (c *codec) put(enc encoder) {
	_ = enc.Close()
	c.pool.Put(enc)
}

// 協商順序：zstd 優先，gzip 次之。
var codecs = []*codec{
	{name: "zstd", pool: sync.Pool{New: func() any {
		zw, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
		if err != nil {
			panic(errs.Wrap(err, "zstd encoder init failed"))
		}
		return zw
	}}},
	{name: "gzip", pool: sync.Pool{New: func() any {
		gw, _ := gzip.NewWriterLevel(nil, gzip.DefaultCompression)
		return gw
	}}},
}

// negotiate 回傳 Accept-Encoding 接受（q > 0）的第一個 codec。
func negotiate(header string) *codec {
	if header == "" {
		return nil
	}
	accepted := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		accepted[strings.ToLower(strings.TrimSpace(name))] = q > 0
	}
	for _, c := range codecs {
		if accepted[c.name] || accepted["*"] {
			return c
		}
	}
	return nil
}

// compressWriter 在第一次送出標頭時才決定是否壓縮：
// 無內容的狀態碼或 handler 已自行編碼時直接透傳。
type compressWriter struct {
	http.ResponseWriter
	codec   *codec
	enc     encoder
	decided bool
}

func (cw *compressWriter) WriteHeader(code int) {
	if !cw.decided {
		cw.decided = true
		h := cw.Header()
		if !bodyless(code) && h.Get("Content-Encoding") == "" {
			h.Del("Content-Length")
			h.Set("Content-Encoding", cw.codec.name)
			h.Add("Vary", "Accept-Encoding")
			cw.enc = cw.codec.get(cw.ResponseWriter)
		}
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if !cw.decided {
		if cw.Header().Get("Content-Type") == "" {
			cw.Header().Set("Content-Type", http.DetectContentType(b))
		}
		cw.WriteHeader(http.StatusOK)
	}
	if cw.enc == nil {
		return cw.ResponseWriter.Write(b)
	}
	return cw.enc.Write(b)
}

func (cw *compressWriter) Flush() {
	if cw.enc != nil {
		_ = cw.enc.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := cw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, errs.NewFatal("response writer cannot hijack")
}

func (cw *compressWriter) finish() {
	if cw.enc != nil {
		cw.codec.put(cw.enc)
		cw.enc = nil
	}
}

func bodyless(code int) bool {
	return code < 200 || code == http.StatusNoContent || code == http.StatusNotModified
}

// Compression 依 Accept-Encoding 壓縮回應。
func Compression(next http.Handler) http.Handler {
	return CompressionExcept()(next)
}

// CompressionExcept 同 Compression，但略過指定的路徑前綴。
//
// /metrics 由 promhttp 自行協商 gzip。
func CompressionExcept(prefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := negotiate(r.Header.Get("Accept-Encoding"))
			if c == nil || r.Method == http.MethodHead || upgrading(r) || skipped(r.URL.Path, prefixes) {
				next.ServeHTTP(w, r)
				return
			}
			cw := &compressWriter{ResponseWriter: w, codec: c}
			defer cw.finish()
			next.ServeHTTP(cw, r)
		})
	}
}

func upgrading(r *http.Request) bool {
	return r.Header.Get("Upgrade") != "" ||
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
