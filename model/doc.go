// Package model contains the in-memory representation of a session: plans
// and their steps (plan), conversation turns and the ledger (conversation),
// and the affective context vector (cognitive).
package model
