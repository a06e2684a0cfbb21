// Package backend defines the contract with the external generative service
// and implements it on top of pluggable text generation models.
package backend
