// Package scoring computes match-confidence scores between a raw statement
// transaction and a reconciliation candidate. Everything here is deterministic
// and side-effect free: the same inputs always produce the same score, so the
// engine is independently testable and reusable by the transfer detector.
package scoring

import (
	"math"
	"time"

	"github.com/mitra-labs/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Factor weights. They sum to 1.0 and are fixed constants, not user
// configurable.
const (
	WeightAmount      = 0.40
	WeightDate        = 0.25
	WeightDescription = 0.20
	WeightRule        = 0.10
	WeightHistory     = 0.05
)

// DateWindowDays is the window over which the date factor decays linearly to zero.
const DateWindowDays = 7.0

// DefaultAmountCeiling is the relative amount difference beyond which the
// amount factor is zero. Overridable per input.
const DefaultAmountCeiling = 0.25

// amountTolerance: differences at or below this are treated as exact.
var amountTolerance = decimal.NewFromFloat(0.01)

// Input carries everything one scoring run needs. Description embeddings are
// precomputed by the caller so scoring itself performs no I/O.
type Input struct {
	RawAmount          decimal.Decimal
	CandidateAmount    decimal.Decimal
	RawDate            time.Time
	CandidateDate      time.Time
	RawEmbedding       []float64
	CandidateEmbedding []float64
	RuleMatched        bool
	// HistoryBoost stays 0 until a learning component exists. The factor is
	// carried explicitly rather than silently omitted.
	HistoryBoost float64
	// AmountCeiling overrides DefaultAmountCeiling when > 0.
	AmountCeiling float64
}

// Result is the total score on a 0-100 scale plus its full factor breakdown.
type Result struct {
	Total     float64
	Breakdown domain.FactorBreakdown
}

// Score combines the five weighted factors for normal reconciliation matching.
func Score(in Input) Result {
	b := domain.FactorBreakdown{
		Amount:      amountSimilarity(in),
		Date:        dateProximity(in.RawDate, in.CandidateDate),
		Description: descriptionSimilarity(in.RawEmbedding, in.CandidateEmbedding),
		History:     in.HistoryBoost,
	}
	if in.RuleMatched {
		b.Rule = 1.0
	}
	total := 100 * (WeightAmount*b.Amount +
		WeightDate*b.Date +
		WeightDescription*b.Description +
		WeightRule*b.Rule +
		WeightHistory*b.History)
	return Result{Total: total, Breakdown: b}
}

// ScoreTransferPair scores two raw transactions as an internal-transfer pair.
// Transfers are identified by clearing-account placement, not by a user rule,
// and the two legs carry mirrored wording ("Transfer to savings" against
// "Transfer from checking"), so description similarity is an unreliable signal
// between legs. Only amount and date carry weight, renormalized over their
// combined share; description is still computed into the breakdown so
// reviewers can see it.
func ScoreTransferPair(in Input) Result {
	b := domain.FactorBreakdown{
		Amount:      amountSimilarity(in),
		Date:        dateProximity(in.RawDate, in.CandidateDate),
		Description: descriptionSimilarity(in.RawEmbedding, in.CandidateEmbedding),
	}
	norm := WeightAmount + WeightDate
	total := 100 * (WeightAmount*b.Amount + WeightDate*b.Date) / norm
	return Result{Total: total, Breakdown: b}
}

// amountSimilarity is 1.0 for exact matches (difference within 0.01) and
// decays piecewise with the relative difference, reaching 0 at the ceiling.
func amountSimilarity(in Input) float64 {
	diff := in.RawAmount.Sub(in.CandidateAmount).Abs()
	if diff.LessThanOrEqual(amountTolerance) {
		return 1.0
	}

	larger := decimal.Max(in.RawAmount.Abs(), in.CandidateAmount.Abs())
	if larger.IsZero() {
		return 0
	}
	rel, _ := diff.Div(larger).Float64()

	ceiling := in.AmountCeiling
	if ceiling <= 0 {
		ceiling = DefaultAmountCeiling
	}

	switch {
	case rel <= 0.01:
		return 0.9
	case rel <= 0.05:
		return 0.7
	case rel <= 0.10:
		return 0.4
	case rel <= ceiling:
		return 0.15
	default:
		return 0
	}
}

// dateProximity is 1.0 for the same day, decaying linearly to 0 over the
// window. It is symmetric: swapping which side is earlier changes nothing.
func dateProximity(a, b time.Time) float64 {
	days := math.Abs(a.Sub(b).Hours()) / 24
	if days >= DateWindowDays {
		return 0
	}
	return 1 - days/DateWindowDays
}

// descriptionSimilarity is the cosine similarity of the two description
// embeddings, clamped to [0, 1]. Missing embeddings contribute nothing.
func descriptionSimilarity(a, b []float64) float64 {
	c := cosine(a, b)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
