// Package device implements the lifecycle manager owning attach,
// detach, suspend and resume of a laptop hardware-control context.
//
// A Context bundles everything the core knows about one attached
// machine: detection result, capability set, register controller,
// attribute table and thermal adapter. Contexts are created only by
// Manager.Attach and destroyed only by Manager.Detach; components never
// hold a context past its detach.
package device
