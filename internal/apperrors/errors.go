package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidAmount indicates a zero or otherwise unusable monetary amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrSelfTransfer indicates a transfer where source and destination are the same account.
var ErrSelfTransfer = errors.New("cannot transfer to the same account")

// ErrInsufficientFunds indicates that a debit would take a balance below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrAllocationExhausted indicates that account ID allocation gave up after
// the bounded number of collision retries.
var ErrAllocationExhausted = errors.New("account id allocation exhausted")

// ErrInvalidCode indicates an unknown or already-consumed registration code.
var ErrInvalidCode = errors.New("invalid registration code")

// ErrAlreadyRegistered indicates that the caller identity already has a user record.
var ErrAlreadyRegistered = errors.New("user already registered")

// ErrRegistrationIncomplete indicates that a registration code was consumed but
// the remaining registration steps failed. The code is not refunded.
var ErrRegistrationIncomplete = errors.New("registration incomplete after code was consumed")

// ErrProtectedAccount indicates an attempt to delete the root bank account.
var ErrProtectedAccount = errors.New("cannot delete the main bank account")

// ErrUnauthorized indicates the caller's role is insufficient for the operation.
var ErrUnauthorized = errors.New("unauthorized")

// ErrBusy indicates transient lock contention; the operation may be retried.
var ErrBusy = errors.New("account busy, try again")
