package service

import (
	"math"

	"starsgame/models"

	"github.com/shopspring/decimal"
)

// DefaultGrowthRate is the multiplier growth constant k, per millisecond
const DefaultGrowthRate = 0.00006

var (
	MinCrashPoint = decimal.New(100, -2)   // 1.00
	MaxCrashPoint = decimal.New(10000, -2) // 100.00
)

// GenerateCrashPoint maps a uniform r in [0, 1) to a crash point with
// P(point >= x) = (1 - houseEdge) / x, so the long-run payout ratio is
// 1 - houseEdge whatever multiplier a player cashes out at.
// The result is truncated to two decimals and clamped to [1.00, 100.00].
func GenerateCrashPoint(houseEdge float64, r float64) decimal.Decimal {
	if r < 0 {
		r = 0
	}
	if r >= 1 {
		r = math.Nextafter(1, 0)
	}

	raw := (1 - houseEdge) / (1 - r)
	if math.IsNaN(raw) || raw <= MinCrashPoint.InexactFloat64() {
		return MinCrashPoint
	}
	if raw >= MaxCrashPoint.InexactFloat64() {
		return MaxCrashPoint
	}
	return TruncateMultiplier(raw)
}

// TruncateMultiplier cuts a multiplier down to two decimals, never rounding up
func TruncateMultiplier(m float64) decimal.Decimal {
	// NewFromFloat uses the shortest exact representation, so 2.35 stays 2.35
	cents := decimal.NewFromFloat(m).Shift(2).Truncate(0).IntPart()
	return decimal.New(cents, -2)
}

// MultiplierAt returns e^(k * elapsedMs). Before the flight starts it is 1.
func MultiplierAt(elapsedMs int64, growthRate float64) float64 {
	if elapsedMs <= 0 {
		return 1
	}
	return math.Exp(growthRate * float64(elapsedMs))
}

// FlightDurationMs returns how long the multiplier takes to reach point
func FlightDurationMs(point decimal.Decimal, growthRate float64) int64 {
	return int64(math.Ceil(math.Log(point.InexactFloat64()) / growthRate))
}

// PhaseAt derives the phase of a round from its immutable fields and the clock
func PhaseAt(round *models.Round, nowMs int64, growthRate float64) models.RoundPhase {
	if nowMs < round.StartTime {
		return models.RoundPhase{
			Status:      models.RoundStatusPending,
			CountdownMs: round.StartTime - nowMs,
			Multiplier:  1,
		}
	}

	m := MultiplierAt(nowMs-round.StartTime, growthRate)
	crashPoint := round.CrashPoint.InexactFloat64()
	if m >= crashPoint {
		return models.RoundPhase{
			Status:     models.RoundStatusEnded,
			Multiplier: crashPoint,
		}
	}
	return models.RoundPhase{
		Status:     models.RoundStatusFlying,
		Multiplier: m,
	}
}

// RotationDue reports whether a round's flight and settle buffer are over
func RotationDue(round *models.Round, nowMs int64, growthRate float64, settleBufferMs int64) bool {
	return nowMs > round.StartTime+FlightDurationMs(round.CrashPoint, growthRate)+settleBufferMs
}
