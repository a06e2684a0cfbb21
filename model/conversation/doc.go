// Package conversation defines the conversation ledger: user and model turns
// appended in pairs, one pair per accepted submission.
package conversation
