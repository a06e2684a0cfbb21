// Package approval records operator decisions on plans under review. Every
// attached plan opens a request; committing it approves the request and
// cancelling or superseding it rejects the request.
package approval
