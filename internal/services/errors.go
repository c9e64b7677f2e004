package services

import (
	"errors"
	"fmt"
)

// Idempotency guards. Callers treat these as benign no-ops, not failures.
var (
	ErrAlreadyApproved = errors.New("approval already recorded for this owner")
	ErrAlreadyExecuted = errors.New("transaction already executed")
	ErrNotApproved     = errors.New("no approval on record for this owner")
	ErrIndexConflict   = errors.New("transaction index already mirrored for this wallet")
)

var (
	ErrWalletNotFound      = errors.New("wallet not mirrored")
	ErrTransactionNotFound = errors.New("transaction not mirrored")
	ErrChainNotFound       = errors.New("network not configured")
)

// ValidationError rejects a request before any ledger call. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// LedgerReadError wraps a failed read against the on-chain wallet. Surfaced
// verbatim; the engine never writes a partial mirror record after one.
type LedgerReadError struct {
	Op  string
	Err error
}

func (e *LedgerReadError) Error() string {
	return fmt.Sprintf("ledger read %s failed: %v", e.Op, e.Err)
}

func (e *LedgerReadError) Unwrap() error { return e.Err }

// LedgerCallError wraps a failed chain-mutating call. Never retried here:
// only the caller's signer can decide whether re-submission is safe.
type LedgerCallError struct {
	Op  string
	Err error
}

func (e *LedgerCallError) Error() string {
	return fmt.Sprintf("ledger call %s failed: %v", e.Op, e.Err)
}

func (e *LedgerCallError) Unwrap() error { return e.Err }

// MirrorWriteError wraps a failed mirror write where no on-chain action
// preceded it. The mirror record does not exist; the caller may retry.
type MirrorWriteError struct {
	Err error
}

func (e *MirrorWriteError) Error() string {
	return fmt.Sprintf("mirror write failed: %v", e.Err)
}

func (e *MirrorWriteError) Unwrap() error { return e.Err }

// MirrorSyncError reports that the on-chain action succeeded but the mirror
// could not record it. The ledger state is authoritative and ahead of the
// mirror; the proposal identified by CallHash remains valid on-chain.
type MirrorSyncError struct {
	CallHash string
	Err      error
}

func (e *MirrorSyncError) Error() string {
	return fmt.Sprintf("mirror sync failed after ledger call %s: %v (ledger state is authoritative)", e.CallHash, e.Err)
}

func (e *MirrorSyncError) Unwrap() error { return e.Err }
