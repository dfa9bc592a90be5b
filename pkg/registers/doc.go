// Package registers implements the serialized register access layer.
//
// All hardware traffic flows through a Controller: one mutex per device
// context serializes every firmware round-trip, a bounded retry policy
// with a fixed inter-retry delay absorbs transient EC busyness, and a
// stable status taxonomy distinguishes the failure kinds callers can act
// on:
//
//   - Unsupported: the capability is absent; rejected before any
//     hardware call.
//   - InvalidArgument: the caller passed an out-of-contract value;
//     rejected before any hardware call.
//   - Rejected: the firmware explicitly refused; retrying with the same
//     argument will not help.
//   - Timeout: the firmware did not answer within the retry policy;
//     retryable by the caller.
//   - Unavailable: the controller was closed during teardown.
//
// Serialization lives here and nowhere else: every other component
// composes on top of Execute without reasoning about locks.
package registers
