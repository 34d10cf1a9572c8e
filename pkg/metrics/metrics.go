// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes the hub/refresher/watcher operational counters
// carried as an ambient concern: refreshes run, repos refreshed, watcher
// events processed, query latency. A promhttp.Handler is mounted behind
// an optional --metrics-addr flag rather than always-on.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RefreshesTotal counts every hub.RefreshRepo call, labeled by outcome.
	RefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devac_refreshes_total",
		Help: "Total hub.RefreshRepo calls, by outcome.",
	}, []string{"outcome"})

	// ReposRefreshedTotal counts repos actually refreshed (nonzero change).
	ReposRefreshedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "devac_repos_refreshed_total",
		Help: "Total repos refreshed with a nonzero change count.",
	})

	// WatcherEventsTotal counts file-change events emitted by the watcher,
	// after debounce collapse.
	WatcherEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "devac_watcher_events_total",
		Help: "Total debounced file-change events emitted by the watcher.",
	})

	// QueryDuration observes query_sql/get_call_graph latency.
	QueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "devac_query_duration_seconds",
		Help: "Query engine operation latency.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(RefreshesTotal, ReposRefreshedTotal, WatcherEventsTotal, QueryDuration)
}

// ObserveQuery times fn under the named operation and records its
// duration in QueryDuration.
func ObserveQuery(op string, fn func()) {
	start := time.Now()
	fn()
	QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Handler returns the promhttp handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
