// Package attributes implements the exposed state interface: a flat,
// name-indexed table of typed attributes backed by register operations
// or cached values.
//
// Every write is validated before hardware is touched: the capability
// gate first (a gated attribute fails Unsupported with zero register
// operations issued), then the range rule (InvalidArgument). Caches are
// updated only after the underlying register operation succeeds.
package attributes
