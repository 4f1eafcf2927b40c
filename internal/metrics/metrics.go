package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Federation metrics
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_provider_requests_total",
			Help: "Total number of outbound requests per provider, by outcome.",
		},
		[]string{"provider", "status"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_searches_total",
			Help: "Total number of federated search calls, by media category.",
		},
		[]string{"category"},
	)

	DetailLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upnext_detail_lookups_total",
			Help: "Total number of detail lookups, by source and outcome.",
		},
		[]string{"source", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		SearchesTotal,
		DetailLookupsTotal,
	)
}
