// Package billing implements the flight completion and billing
// reconciliation engine: turning end-of-flight meter readings into billable
// segments, resolving hourly rates and tax treatment, maintaining an
// editable draft invoice that is kept in sync with the remote invoice
// store, and committing the final flight log and invoice atomically.
package billing
