// Package dao defines the generic data access contract shared by the turn
// archive and the approval store.
package dao
