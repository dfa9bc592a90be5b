// Package firmware provides access to the laptop firmware: DMI
// identification strings and the transports used to reach the embedded
// controller and vendor ACPI control methods.
//
// # Transports
//
// A Transport performs one synchronous firmware round-trip. Two real
// transports are provided on Linux:
//
//   - ECPortTransport talks the Legion EC protocol on I/O ports 0x66/0x62
//     through /dev/port.
//   - ACPICallTransport evaluates vendor ACPI methods through the
//     /proc/acpi/call interface.
//
// Transports carry no locking or retry logic of their own; serialization
// and retry policy live in the registers package.
package firmware
