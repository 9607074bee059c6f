package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	decisionAuthenticated = "authenticated"
	decisionFailed        = "failed"
)

var authDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_decisions_total",
		Help: "Total number of bearer authentication decisions by outcome",
	},
	[]string{"decision"},
)
