// Package plan defines flat sequential plans, their tool parameters and the
// edit operations available while a plan is under review.
package plan
