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

// Package metrics 集中定義 Prometheus 指標，註冊在預設 registry，由 /metrics 輸出。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zintix-labs/lottolab/errs"
)

const namespace = "lottolab"

var (
	purchaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_total",
			Help:      "Ticket purchase attempts by result",
		},
		[]string{"result"},
	)

	ticketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_sold_total",
			Help:      "Tickets sold",
		},
	)

	drawTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draw_total",
			Help:      "Draw attempts by result",
		},
		[]string{"result"},
	)

	prizePaid = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prize_paid_total",
			Help:      "Prize paid to players in currency units",
		},
	)

	ticketHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_hits_total",
			Help:      "Settled tickets by hit count",
		},
		[]string{"hits"},
	)

	persistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_total",
			Help:      "Async persistence jobs by result (ok|error|dropped)",
		},
		[]string{"result"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live game sessions",
		},
	)

	httpReqTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	httpReqDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request duration in ms",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"route", "method"},
	)
)

// Handler 回傳 /metrics 的 handler。
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPurchase 記錄一次購票；err 非 nil 時 result 為錯誤種類。
func RecordPurchase(tickets int, err error) {
	if err != nil {
		purchaseTotal.WithLabelValues(result(err)).Inc()
		return
	}
	purchaseTotal.WithLabelValues("ok").Inc()
	ticketsSold.Add(float64(tickets))
}

// RecordDraw 記錄一次開獎結算。
func RecordDraw(hitCounts map[int]int, totalPrize int, err error) {
	if err != nil {
		drawTotal.WithLabelValues(result(err)).Inc()
		return
	}
	drawTotal.WithLabelValues("ok").Inc()
	prizePaid.Add(float64(totalPrize))
	for hits, n := range hitCounts {
		ticketHits.WithLabelValues(strconv.Itoa(hits)).Add(float64(n))
	}
}

// RecordPersist result: ok | error | dropped
func RecordPersist(result string) {
	persistTotal.WithLabelValues(result).Inc()
}

func SessionOpened() { activeSessions.Inc() }
func SessionClosed() { activeSessions.Dec() }

// ObserveHTTP route 應為路由樣板（例如 /v1/sessions/{sid}），避免高基數。
func ObserveHTTP(route, method string, status int, started time.Time) {
	if route == "" {
		route = "unmatched"
	}
	httpReqTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpReqDuration.WithLabelValues(route, method).Observe(float64(time.Since(started).Microseconds()) / 1000)
}

func result(err error) string {
	if k := errs.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
