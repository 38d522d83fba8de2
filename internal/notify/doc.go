// Package notify carries the notification raised for every stored audit
// entry to its destinations.
//
// The service stages events while a ledger transaction runs and only hands
// them to the configured Sink after the commit succeeded, so a rejected or
// rolled back append never produces a notification.
package notify
