// Package policy decides how an attached plan reaches execution: either the
// operator commits it (ask) or the engine starts right away (auto). A block
// list rejects plans that use forbidden tools.
package policy
