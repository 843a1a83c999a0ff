package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Lookup errors
	ErrCustomerNotFound = errors.New("customer not found")
	ErrCustomerExists   = errors.New("customer with this phone already exists")
	ErrSaleNotFound     = errors.New("sale not found")

	// Validation errors
	ErrInvalidPhone  = errors.New("phone number must be exactly 10 digits")
	ErrInvalidAmount = errors.New("amount must be a positive value")
	ErrSaleFinalized = errors.New("sale is already in a terminal state")

	// Reconciliation errors
	ErrInvalidSignature = errors.New("payment signature verification failed")
	ErrAlreadyProcessed = errors.New("payment already processed")

	// Gateway errors
	ErrGatewayDisabled = errors.New("payment gateway credentials not configured")

	// OTP errors
	ErrNoPendingCode = errors.New("no pending code for this phone")
	ErrCodeExpired   = errors.New("code has expired")
	ErrCodeMismatch  = errors.New("code does not match")

	// Sweeper errors
	ErrSweepInProgress = errors.New("a sweep is already running")
)
