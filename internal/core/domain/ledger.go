package domain

// Ledger is one set of books: every account, entry, raw transaction, match and
// rule belongs to exactly one ledger. All cross-currency balance checks convert
// into the ledger's base currency.
type Ledger struct {
	LedgerID         string `json:"ledgerID"`
	Name             string `json:"name"`
	BaseCurrencyCode string `json:"baseCurrencyCode"`
	AuditFields
}
