package config

import (
	"os"
	"strings"
)

// MergeIgnoreOpenDiscrepancy disables the guard that blocks merging a
// marketplace-stage batch while it has an unresolved reconciliation
// discrepancy. The guard is ON unless this flag is set.
//
// Set via env:
// - MERGE_IGNORE_OPEN_DISCREPANCY=true
func MergeIgnoreOpenDiscrepancy() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("MERGE_IGNORE_OPEN_DISCREPANCY")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictLedgerBalanceCheck makes every mutating batch operation re-derive the
// batch balance from the ledger inside the transaction and abort on drift.
//
// Set via env:
// - STRICT_LEDGER_BALANCE_CHECK=true
func StrictLedgerBalanceCheck() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_LEDGER_BALANCE_CHECK")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
