package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCoreIsSingleton(t *testing.T) {
	assert.Same(t, Core(), Core())
}

func TestRecordOperation(t *testing.T) {
	m := Core()
	before := testutil.ToFloat64(m.operations.WithLabelValues("ledger.transfer", "insufficient_balance"))

	m.RecordOperation("ledger.transfer", "INSUFFICIENT_BALANCE")

	after := testutil.ToFloat64(m.operations.WithLabelValues("ledger.transfer", "insufficient_balance"))
	assert.Equal(t, before+1, after)
}

func TestRecordEscrowIgnoresNonPositive(t *testing.T) {
	m := Core()
	before := testutil.ToFloat64(m.escrowFlow.WithLabelValues("deposit", "in"))

	m.RecordEscrow("DEPOSIT", "in", 0)
	m.RecordEscrow("DEPOSIT", "in", 50)

	assert.Equal(t, before+50, testutil.ToFloat64(m.escrowFlow.WithLabelValues("deposit", "in")))
}

func TestRecordEmail(t *testing.T) {
	m := Core()
	before := testutil.ToFloat64(m.emailsSent.WithLabelValues("error"))
	m.RecordEmail(errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(m.emailsSent.WithLabelValues("error")))
}

func TestNilRegistryIsSafe(t *testing.T) {
	var m *coreMetrics
	assert.NotPanics(t, func() {
		m.RecordOperation("x", "ok")
		m.RecordEvent("x")
		m.RecordEscrow("x", "in", 1)
		m.RecordDisputeResolved("DRAW")
		m.RecordEmail(nil)
		m.RecordSupply(1, 1, 0)
	})
}

func TestRecordSupply(t *testing.T) {
	m := Core()
	m.RecordSupply(300, 220, 80)
	assert.Equal(t, float64(300), testutil.ToFloat64(m.credits.WithLabelValues("supply")))
	assert.Equal(t, float64(220), testutil.ToFloat64(m.credits.WithLabelValues("accounts")))
	assert.Equal(t, float64(80), testutil.ToFloat64(m.credits.WithLabelValues("escrow")))
}
