package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrField(t *testing.T) {
	assert.Equal(t, F("error", "boom"), Err(errors.New("boom")))
	assert.Equal(t, F("error", ""), Err(nil))
}

func TestNopMetricsAcceptAnyKey(t *testing.T) {
	m := Nop().Metrics()
	assert.NotPanics(t, func() {
		m.Counter(MStockUnits).Add(1, L("direction", "reserved"))
		m.Histogram(MUsecaseDuration).Observe(0.1)
	})
}
