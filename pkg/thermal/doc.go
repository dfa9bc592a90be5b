// Package thermal adapts register-backed temperature sensors to an OS
// thermal framework.
//
// A Source is a stateless template binding a sensor name to a register
// channel and query argument. The Adapter owns the per-source lifecycle
// (register, enable, disable, unregister) against a Registrar, which
// abstracts the framework itself. Readings are always pulled live from
// the firmware; a failed read yields ErrNoReading, never a stale value.
package thermal
