// Package schema provides the Type Descriptor model consumed by the encoder compiler.
//
// A Descriptor is a closed variant: Map, List, Record, Primitive and Opaque are the
// only implementations. Descriptors come from three places:
//   - programmatic construction (the types in this package)
//   - Hive-style type strings (Parse)
//   - CUE definitions (FromCUE, LoadCUE)
//
// This package performs no encoding; internal/encode compiles descriptors into
// encoder trees. Descriptors are immutable values and must be finite and acyclic.
package schema
