package oracle

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pu0238/vote-me/pkg/derivation"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voteme_oracle_calls_total",
			Help: "Signing oracle calls by method and result.",
		},
		[]string{"method", "result"},
	)
	feesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voteme_oracle_fees_total",
		Help: "Cycles attached to signing requests.",
	})
)

// Metered wraps o so that every call is counted and every Sign attempt is
// charged fee cycles, whether or not it succeeds.
func Metered(o Oracle, fee uint64) Oracle {
	return &metered{next: o, fee: fee}
}

type metered struct {
	next Oracle
	fee  uint64
}

func (m *metered) PublicKey(ctx context.Context, path derivation.Path) (string, error) {
	pub, err := m.next.PublicKey(ctx, path)
	observe("public_key", err)
	return pub, err
}

func (m *metered) Sign(ctx context.Context, path derivation.Path, digest [32]byte) ([]byte, error) {
	feesTotal.Add(float64(m.fee))
	sig, err := m.next.Sign(ctx, path, digest)
	observe("sign", err)
	return sig, err
}

func observe(method string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	callsTotal.WithLabelValues(method, result).Inc()
}
