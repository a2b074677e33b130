package guess

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal counts public queries by operation and outcome.
	// Labels: op (element, cast, conjuncts), outcome (found, empty, canceled)
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "typeguess",
		Name:      "queries_total",
		Help:      "Type-guessing queries by operation and outcome",
	}, []string{"op", "outcome"})

	// escalationsTotal counts heuristic passes by verdict.
	// Labels: verdict (resolved, no_info, escalate)
	escalationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "typeguess",
		Name:      "heuristic_verdicts_total",
		Help:      "Heuristic pass verdicts; escalate means the dataflow interpreter was run",
	}, []string{"verdict"})

	// degradationsTotal counts the failure modes that reduce results.
	// Labels: reason (no_scope, analysis_incomplete, search_overflow, propagation_capped)
	degradationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "typeguess",
		Name:      "degradations_total",
		Help:      "Queries or contributions that returned fewer types than possible",
	}, []string{"reason"})

	// identityInconsistenciesTotal counts equivalent expressions that hashed apart.
	identityInconsistenciesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "typeguess",
		Name:      "identity_inconsistencies_total",
		Help:      "Equivalent expressions whose shape hashes differed",
	})

	// cacheLookupsTotal counts conjunct cache lookups.
	// Labels: result (hit, miss)
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "typeguess",
		Name:      "cache_lookups_total",
		Help:      "Conjunct cache lookups by result",
	}, []string{"result"})
)

const (
	reasonNoScope    = "no_scope"
	reasonIncomplete = "analysis_incomplete"
	reasonOverflow   = "search_overflow"
	reasonCapped     = "propagation_capped"
)

func recordQuery(op string, n int, err error) {
	outcome := "found"
	switch {
	case err != nil:
		outcome = "canceled"
	case n == 0:
		outcome = "empty"
	}
	queriesTotal.WithLabelValues(op, outcome).Inc()
}

func recordDegradation(reason string) {
	degradationsTotal.WithLabelValues(reason).Inc()
}
