// Package encode compiles schema descriptors into encoder trees and drives a
// streaming JSON Writer with them.
//
// Compile walks a descriptor once and returns an immutable Node tree that is
// isomorphic to it. Encoding a value walks the tree top-down; no node inspects
// the schema again or holds per-call state, so one tree may serve any number
// of concurrent Encode calls as long as each call has its own Writer.
//
// Every node checks for an absent value (nil, or a nil slice/map) first and
// writes JSON null for it, whatever its kind. Values of an unexpected Go type
// are reported as *TypeError.
//
// Wire formats fixed by this package:
//   - Binary: standard base64 with padding, as a JSON string
//   - Timestamp: UTC, second precision, TimestampLayout ("1970-01-01T00:00:01Z")
//   - Float NaN and ±Inf: rejected with ErrUnsupportedFloat
package encode
