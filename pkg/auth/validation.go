package auth

import "github.com/dmitrymomot/biztrack/pkg/validator"

const (
	minChangedPasswordLen = 6
	minResetPasswordLen   = 8
)

func validateLogin(email, password string) error {
	return validator.Apply(
		validator.Required("email", email, "Please enter both email and password"),
		validator.Required("password", password, "Please enter both email and password"),
		validator.Email("email", email, "Please enter a valid email address"),
	)
}

func validateForgotPassword(email string) error {
	return validator.Apply(
		validator.Required("email", email, "Please enter your email address"),
		validator.Email("email", email, "Please enter a valid email address"),
	)
}

func validateResetPassword(resetToken, password, confirm string) error {
	return validator.Apply(
		validator.Required("token", resetToken, "Reset token is missing"),
		validator.Required("password", password, "Please enter both password fields"),
		validator.Required("confirmPassword", confirm, "Please enter both password fields"),
		validator.Equal("confirmPassword", confirm, password, "Passwords do not match"),
		validator.MinLen("password", password, minResetPasswordLen, "Password must be at least 8 characters long"),
	)
}

func validateChangePassword(currentPassword, newPassword, confirm string) error {
	return validator.Apply(
		validator.Required("currentPassword", currentPassword, "Please fill in all fields"),
		validator.Required("newPassword", newPassword, "Please fill in all fields"),
		validator.Required("confirmPassword", confirm, "Please fill in all fields"),
		validator.Equal("confirmPassword", confirm, newPassword, "New passwords do not match"),
		validator.MinLen("newPassword", newPassword, minChangedPasswordLen, "Password must be at least 6 characters long"),
	)
}
