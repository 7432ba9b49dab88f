package observability

// Metric name prefixes
const (
	MetricPrefix = "starsgame"
)

// Metric names
const (
	// Ledger metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"
	StarsMovedTotal          = MetricPrefix + ".balance.stars_moved_total"

	// Crash metrics
	CrashRoundsTotal      = MetricPrefix + ".crash.rounds_total"
	CrashBetsPlacedTotal  = MetricPrefix + ".crash.bets_placed_total"
	CrashBetsSettledTotal = MetricPrefix + ".crash.bets_settled_total"
	CrashBetsActive       = MetricPrefix + ".crash.bets_active"
	CrashStarsWagered     = MetricPrefix + ".crash.stars_wagered_total"
	CrashStarsPaidOut     = MetricPrefix + ".crash.stars_paid_out_total"
	CrashCashoutPoint     = MetricPrefix + ".crash.cashout_multiplier"

	// Case metrics
	CaseOpensTotal   = MetricPrefix + ".cases.opens_total"
	CaseStarsSpent   = MetricPrefix + ".cases.stars_spent_total"
	CaseStarsAwarded = MetricPrefix + ".cases.stars_awarded_total"
)

// Label keys
const (
	LabelType       = "type"
	LabelStatus     = "status"
	LabelCaseID     = "case_id"
	LabelGuaranteed = "guaranteed"
	LabelRare       = "rare"
	LabelDirection  = "direction"
)

// Directions of a balance change
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)
