package domain

import "time"

// MatchStatus is the lifecycle state of one reconciliation match version.
type MatchStatus string

const (
	MatchAuto          MatchStatus = "AUTO"
	MatchPendingReview MatchStatus = "PENDING_REVIEW"
	MatchConfirmed     MatchStatus = "CONFIRMED"
	MatchRejected      MatchStatus = "REJECTED"
	MatchSuperseded    MatchStatus = "SUPERSEDED"
)

// Resolved reports whether the match needs no further human attention.
func (s MatchStatus) Resolved() bool {
	return s == MatchAuto || s == MatchConfirmed
}

// CandidateKind discriminates what a match links a raw transaction to.
type CandidateKind string

const (
	CandidateJournalEntry CandidateKind = "JOURNAL_ENTRY"
	CandidateRulePosting  CandidateKind = "RULE_POSTING"
	CandidateTransferLeg  CandidateKind = "TRANSFER_LEG"
	CandidateTransferPair CandidateKind = "TRANSFER_PAIR"
)

// FactorBreakdown records every scoring component of a match, never just the
// total, so each decision stays auditable.
type FactorBreakdown struct {
	Amount      float64 `json:"amount"`
	Date        float64 `json:"date"`
	Description float64 `json:"description"`
	Rule        float64 `json:"rule"`
	History     float64 `json:"history"`
}

// ReconciliationMatch is one version of the link between raw transaction(s)
// and a ledger posting. A raw transaction accumulates match versions over
// time (v1, v2, ...); at most one is active at any instant, and re-running
// reconciliation supersedes rather than deletes.
type ReconciliationMatch struct {
	MatchID   string          `json:"matchID"`
	LedgerID  string          `json:"ledgerID"`
	RawTxnIDs []string        `json:"rawTxnIDs"` // One or more covered raw transactions
	Version   int64           `json:"version"`
	EntryID   *string         `json:"entryID,omitempty"` // Journal entry produced or linked
	RuleID    *string         `json:"ruleID,omitempty"`  // Rule that proposed the match, if any
	Kind      CandidateKind   `json:"kind"`
	Status    MatchStatus     `json:"status"`
	Score     float64         `json:"score"` // 0-100
	Breakdown FactorBreakdown `json:"breakdown"`
	AuditFields
}

// MatchCandidate is the tagged-variant candidate set the reconciliation engine
// scores: an open journal entry, a rule-suggested posting, or another raw
// transaction acting as a transfer peer. Exactly one pointer is set, per Kind.
type MatchCandidate struct {
	Kind  CandidateKind
	Entry *JournalEntry
	Rule  *ReconciliationRule
	Peer  *RawTransaction
}

// ID returns a stable identifier for deterministic tie-breaking.
func (c MatchCandidate) ID() string {
	switch c.Kind {
	case CandidateJournalEntry:
		return c.Entry.EntryID
	case CandidateRulePosting:
		return c.Rule.RuleID
	case CandidateTransferLeg, CandidateTransferPair:
		return c.Peer.RawTxnID
	}
	return ""
}

// Date returns the candidate-side date used for proximity scoring. Rule
// postings have no date of their own; they inherit the transaction date.
func (c MatchCandidate) Date(rawDate time.Time) time.Time {
	switch c.Kind {
	case CandidateJournalEntry:
		return c.Entry.EntryDate
	case CandidateTransferLeg, CandidateTransferPair:
		return c.Peer.TxnDate
	}
	return rawDate
}
