// Package gate buffers trace entries until delivery is allowed.
//
// A Gate is either locked or open. While locked, emitted entries are appended
// to a pending queue. Unlocking swaps the queue out and redelivers its
// entries in emission order, repeating until no late arrivals remain; only
// then does the gate open and later entries go straight to the dispatcher.
// Entries emitted while the drain runs are queued behind the backlog, so no
// entry is lost, duplicated or delivered ahead of an earlier one.
//
// Delivery failures and panics are recovered and counted. They never reach
// the goroutine that emitted or unlocked.
package gate
