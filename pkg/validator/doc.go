// Package validator provides small declarative validation rules for
// client-side form checks.
//
// Each rule pairs a Check function with a ValidationError. Apply evaluates
// rules in order and aggregates failures into ValidationErrors, which
// satisfies the error interface. Every rule takes an optional display
// message; an empty message selects a generic one.
//
// # Usage
//
//	err := validator.Apply(
//	    validator.Required("email", email, "Please enter your email address"),
//	    validator.Email("email", email, ""),
//	)
//	if errs := validator.ExtractValidationErrors(err); errs != nil {
//	    fmt.Println(errs.First())
//	}
package validator
