// Package schema derives a JSON schema for form submissions from the canvas
// and the current rule outcome, and validates submitted values against it.
// Validation failures are reported per field id, with anything that cannot be
// attributed to a field kept as form level messages.
package schema
