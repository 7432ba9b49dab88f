package observability

import (
	"context"
	"testing"

	"starsgame/config"
	"starsgame/events"
	"starsgame/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(config.Default())
	require.NoError(t, mp.initializeWithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byName := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

// sumOf adds up the data points of an int64 sum, optionally filtered by one attribute
func sumOf(t *testing.T, metrics map[string]metricdata.Metrics, name string, filter ...attribute.KeyValue) int64 {
	m, ok := metrics[name]
	require.True(t, ok, "metric %s was not recorded", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)

	var total int64
	for _, dp := range sum.DataPoints {
		if len(filter) > 0 {
			value, found := dp.Attributes.Value(filter[0].Key)
			if !found || value.Emit() != filter[0].Value.Emit() {
				continue
			}
		}
		total += dp.Value
	}
	return total
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	mp := NewMetricsProvider(config.Default())
	require.NoError(t, mp.Initialize(context.Background()))

	assert.False(t, mp.isEnabled())
	assert.NotPanics(t, func() {
		mp.RecordCrashBetPlaced(context.Background(), 100)
		mp.Handle(context.Background(), events.RoundCreatedEvent{RoundID: 1})
	})
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := config.Default()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "carrier-pigeon"

	err := NewMetricsProvider(cfg).Initialize(context.Background())
	assert.ErrorContains(t, err, "unknown exporter type")
}

func TestMetricsProvider_CrashLifecycle(t *testing.T) {
	mp, reader := newTestMetrics(t)
	ctx := context.Background()

	mp.Handle(ctx, events.RoundCreatedEvent{RoundID: 1})
	mp.Handle(ctx, events.CrashBetPlacedEvent{BetID: 1, UserID: 42, RoundID: 1, BetAmount: 100})
	mp.Handle(ctx, events.CrashBetPlacedEvent{BetID: 2, UserID: 43, RoundID: 1, BetAmount: 50})
	mp.Handle(ctx, events.CrashBetSettledEvent{
		BetID:      1,
		Status:     models.CrashBetStatusCashedOut,
		Multiplier: decimal.RequireFromString("1.82"),
		Payout:     182,
	})
	mp.Handle(ctx, events.CrashBetSettledEvent{
		BetID:      2,
		Status:     models.CrashBetStatusBusted,
		Multiplier: decimal.RequireFromString("1.40"),
	})

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumOf(t, metrics, CrashRoundsTotal))
	assert.Equal(t, int64(2), sumOf(t, metrics, CrashBetsPlacedTotal))
	assert.Equal(t, int64(150), sumOf(t, metrics, CrashStarsWagered))
	assert.Equal(t, int64(182), sumOf(t, metrics, CrashStarsPaidOut))
	assert.Equal(t, int64(0), sumOf(t, metrics, CrashBetsActive))
	assert.Equal(t, int64(1), sumOf(t, metrics, CrashBetsSettledTotal,
		attribute.String(LabelStatus, string(models.CrashBetStatusBusted))))

	hist, ok := metrics[CrashCashoutPoint].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestMetricsProvider_LedgerAndCases(t *testing.T) {
	mp, reader := newTestMetrics(t)

	bus := events.NewBus()
	mp.Register(bus)

	ctx := context.Background()
	bus.Emit(ctx, events.BalanceChangeEvent{UserID: 42, TransactionType: models.TransactionTypeTopUp, ChangeAmount: 1000})
	bus.Emit(ctx, events.BalanceChangeEvent{UserID: 42, TransactionType: models.TransactionTypeCaseOpen, ChangeAmount: -200})
	bus.Emit(ctx, events.CaseOpenedEvent{UserID: 42, CaseID: "starter", CasePrice: 200, ItemValue: 500, Guaranteed: true})
	bus.Wait()

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics, BalanceTransactionsTotal))
	assert.Equal(t, int64(200), sumOf(t, metrics, StarsMovedTotal,
		attribute.String(LabelDirection, DirectionDebit)))
	assert.Equal(t, int64(1000), sumOf(t, metrics, StarsMovedTotal,
		attribute.String(LabelDirection, DirectionCredit)))
	assert.Equal(t, int64(1), sumOf(t, metrics, CaseOpensTotal,
		attribute.String(LabelGuaranteed, "true")))
	assert.Equal(t, int64(200), sumOf(t, metrics, CaseStarsSpent))
	assert.Equal(t, int64(500), sumOf(t, metrics, CaseStarsAwarded))
}
