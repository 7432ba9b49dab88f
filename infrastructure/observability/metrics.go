package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"starsgame/config"
	"starsgame/events"
	"starsgame/models"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// MetricsProvider manages OpenTelemetry metrics for the game engine.
// Instruments are fed from committed events on the bus.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	balanceTransactionsCounter metric.Int64Counter
	starsMovedCounter          metric.Int64Counter
	roundsCounter              metric.Int64Counter
	betsPlacedCounter          metric.Int64Counter
	betsSettledCounter         metric.Int64Counter
	betsActiveGauge            metric.Int64UpDownCounter
	starsWageredCounter        metric.Int64Counter
	starsPaidOutCounter        metric.Int64Counter
	cashoutPointHist           metric.Float64Histogram
	caseOpensCounter           metric.Int64Counter
	caseSpentCounter           metric.Int64Counter
	caseAwardedCounter         metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.markInitialized()
		return nil
	}

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.markInitialized()
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	if err := mp.initializeWithReader(reader); err != nil {
		return err
	}

	// Set as global meter provider
	otel.SetMeterProvider(mp.meterProvider)

	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) markInitialized() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.initialized = true
}

// initializeWithReader builds the meter provider around an existing reader
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	// Schemaless so it merges with the SDK defaults whatever semconv version they carry
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("starsgame")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&mp.balanceTransactionsCounter, BalanceTransactionsTotal, "Total number of ledger entries", "1"},
		{&mp.starsMovedCounter, StarsMovedTotal, "Stars moved through the ledger", "{star}"},
		{&mp.roundsCounter, CrashRoundsTotal, "Total number of crash rounds created", "1"},
		{&mp.betsPlacedCounter, CrashBetsPlacedTotal, "Total number of crash bets placed", "1"},
		{&mp.betsSettledCounter, CrashBetsSettledTotal, "Total number of crash bets settled", "1"},
		{&mp.starsWageredCounter, CrashStarsWagered, "Stars wagered on crash rounds", "{star}"},
		{&mp.starsPaidOutCounter, CrashStarsPaidOut, "Stars paid out by crash cashouts", "{star}"},
		{&mp.caseOpensCounter, CaseOpensTotal, "Total number of cases opened", "1"},
		{&mp.caseSpentCounter, CaseStarsSpent, "Stars spent on cases", "{star}"},
		{&mp.caseAwardedCounter, CaseStarsAwarded, "Value of items awarded from cases", "{star}"},
	}
	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
	}

	// UpDownCounter for gauge-like behavior
	mp.betsActiveGauge, err = mp.meter.Int64UpDownCounter(
		CrashBetsActive,
		metric.WithDescription("Current number of active crash bets"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active bets gauge: %w", err)
	}

	mp.cashoutPointHist, err = mp.meter.Float64Histogram(
		CrashCashoutPoint,
		metric.WithDescription("Multiplier at which crash bets were cashed out"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(1.1, 1.25, 1.5, 2, 3, 5, 10, 25, 50, 100),
	)
	if err != nil {
		return fmt.Errorf("failed to create cashout multiplier histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// Register subscribes the provider to every event type it measures
func (mp *MetricsProvider) Register(bus *events.Bus) {
	for _, eventType := range []events.EventType{
		events.EventTypeBalanceChange,
		events.EventTypeRoundCreated,
		events.EventTypeCrashBetPlaced,
		events.EventTypeCrashBetSettled,
		events.EventTypeCaseOpened,
	} {
		bus.Subscribe(eventType, mp.Handle)
	}
}

// Handle is an events.Handler translating events into measurements
func (mp *MetricsProvider) Handle(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.BalanceChangeEvent:
		mp.RecordBalanceTransaction(ctx, e.TransactionType, e.ChangeAmount)
	case events.RoundCreatedEvent:
		mp.RecordRoundCreated(ctx)
	case events.CrashBetPlacedEvent:
		mp.RecordCrashBetPlaced(ctx, e.BetAmount)
	case events.CrashBetSettledEvent:
		mp.RecordCrashBetSettled(ctx, e.Status, e.Multiplier.InexactFloat64(), e.Payout)
	case events.CaseOpenedEvent:
		mp.RecordCaseOpened(ctx, e.CaseID, e.CasePrice, e.ItemValue, e.Guaranteed, e.Rare)
	}
}

// RecordBalanceTransaction records a ledger entry
func (mp *MetricsProvider) RecordBalanceTransaction(ctx context.Context, txType models.TransactionType, amount int64) {
	if !mp.isEnabled() {
		return
	}

	direction := DirectionCredit
	if amount < 0 {
		direction = DirectionDebit
		amount = -amount
	}

	mp.balanceTransactionsCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(LabelType, string(txType))),
	)
	mp.starsMovedCounter.Add(ctx, amount,
		metric.WithAttributes(
			attribute.String(LabelType, string(txType)),
			attribute.String(LabelDirection, direction),
		),
	)
}

// RecordRoundCreated records a round rotation
func (mp *MetricsProvider) RecordRoundCreated(ctx context.Context) {
	if !mp.isEnabled() {
		return
	}
	mp.roundsCounter.Add(ctx, 1)
}

// RecordCrashBetPlaced records a new active bet
func (mp *MetricsProvider) RecordCrashBetPlaced(ctx context.Context, amount int64) {
	if !mp.isEnabled() {
		return
	}
	mp.betsPlacedCounter.Add(ctx, 1)
	mp.betsActiveGauge.Add(ctx, 1)
	mp.starsWageredCounter.Add(ctx, amount)
}

// RecordCrashBetSettled records a cashout or a bust
func (mp *MetricsProvider) RecordCrashBetSettled(ctx context.Context, status models.CrashBetStatus, multiplier float64, payout int64) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String(LabelStatus, string(status)))
	mp.betsSettledCounter.Add(ctx, 1, attrs)
	mp.betsActiveGauge.Add(ctx, -1)

	if status == models.CrashBetStatusCashedOut {
		mp.starsPaidOutCounter.Add(ctx, payout)
		mp.cashoutPointHist.Record(ctx, multiplier)
	}
}

// RecordCaseOpened records a case opening
func (mp *MetricsProvider) RecordCaseOpened(ctx context.Context, caseID string, price, value int64, guaranteed, rare bool) {
	if !mp.isEnabled() {
		return
	}

	caseAttr := attribute.String(LabelCaseID, caseID)
	mp.caseOpensCounter.Add(ctx, 1,
		metric.WithAttributes(
			caseAttr,
			attribute.String(LabelGuaranteed, strconv.FormatBool(guaranteed)),
			attribute.String(LabelRare, strconv.FormatBool(rare)),
		),
	)
	mp.caseSpentCounter.Add(ctx, price, metric.WithAttributes(caseAttr))
	mp.caseAwardedCounter.Add(ctx, value, metric.WithAttributes(caseAttr))
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meterProvider != nil
}
