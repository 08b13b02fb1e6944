// Package validation checks request bodies before they reach the store.
//
// Rules are declared on the domain types with `validate` struct tags and
// evaluated by go-playground/validator. Failures are reported per field using
// the JSON field name and a human message built from the `label` tag:
//
//	if errs := validation.Check(book); len(errs) > 0 {
//	    // Return 400 Bad Request with errs
//	}
//
// Validation is pure: no I/O, no side effects.
package validation
