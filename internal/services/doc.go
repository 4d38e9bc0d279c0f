// Package services defines the shared error taxonomy and context annotations
// used when calling external collaborators (vision service, document store).
//
// Errors are tagged with sentinel markers so callers can classify failures
// with errors.Is and pick the next-cheaper action instead of aborting the
// frame loop: a parse failure aborts only its own action, a missing document
// converts an update into a create, and an unparseable date is treated as an
// absent value.
package services
