// Package matcher matches hardware facts against spec patterns and captures
// variables from the facts that matched.
//
// A Pattern is four Fields, one per fact field. A Field is one of:
//
//   - Literal(v): the fact field must equal v
//   - Bind(name): captures the value of the first compatible fact
//   - Prefer(name): like Bind, and also records the value in the preference
//     set used to pick a CMDB entry
//   - Collect(name): captures the values of every compatible fact, in order
//   - Any(): matches anything and captures nothing
//
// A fact is structurally compatible with a pattern when every Literal field
// equals the corresponding fact field. Matching never backtracks: the first
// compatible fact is the one that binds.
//
// Spec files are YAML lists of 4-element lists. A field may be written as a
// plain scalar (a literal), as the shorthands "*", "$name" and "$$name", or
// as a single-key mapping:
//
//	- [system, product, serial, $serial]
//	- [disk, sda, size, {literal: "100"}]
//	- [network, "*", serial, {collect: macs}]
//	- [system, product, name, {prefer: model}]
package matcher
