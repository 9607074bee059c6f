package oidckit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"

	resultHit  = "hit"
	resultMiss = "miss"
)

var (
	jwksRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jwks_refresh_total",
			Help: "Total number of JWKS refresh attempts by outcome",
		},
		[]string{"outcome"},
	)

	keyCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jwks_key_lookups_total",
			Help: "Total number of kid lookups against the key cache",
		},
		[]string{"result"},
	)
)
