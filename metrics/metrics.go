// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HashesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gwminer",
		Name:      "hashes_total",
		Help:      "Total scrypt hashes evaluated.",
	})

	SolutionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gwminer",
		Name:      "solutions_accepted_total",
		Help:      "Total submitted nonces accepted by the node.",
	})

	SolutionsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gwminer",
		Name:      "solutions_rejected_total",
		Help:      "Total submitted nonces rejected by the node.",
	})

	WorkFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gwminer",
		Name:      "work_fetched_total",
		Help:      "Total work templates published to the hash workers.",
	})

	FetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gwminer",
		Name:      "fetch_errors_total",
		Help:      "Work fetch failures by classification.",
	}, []string{"kind"})

	LongPollActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gwminer",
		Name:      "long_poll_active",
		Help:      "Whether a long-poll connection to the node is active.",
	})
)

func init() {
	prometheus.MustRegister(
		HashesTotal,
		SolutionsAccepted,
		SolutionsRejected,
		WorkFetched,
		FetchErrors,
		LongPollActive,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
