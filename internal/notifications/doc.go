// Package notifications delivers sheet-watch events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Scan and error notifications can be toggled independently so a
// noisy desk camera does not have to mean a noisy phone.
//
// Extend this package if you need alternative transports; the orchestrator
// depends only on the simple Service interface.
package notifications
