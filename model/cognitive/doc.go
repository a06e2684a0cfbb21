// Package cognitive defines the session mood vector that modulates synthesis tone.
package cognitive
