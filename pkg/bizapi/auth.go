package bizapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/biztrack/pkg/apiclient"
	"github.com/dmitrymomot/biztrack/pkg/session"
)

// LoginResult is the login response. A successful login carries both the
// token and the user.
type LoginResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Token   string        `json:"token"`
	User    *session.User `json:"user"`
}

// Session converts the result into a session. The result is usable only when
// the returned session is Valid.
func (r *LoginResult) Session() session.Session {
	if r == nil || r.User == nil {
		return session.Session{}
	}
	return session.New(r.Token, *r.User)
}

type profileResponse struct {
	Success bool          `json:"success"`
	User    *session.User `json:"user"`
}

// Login exchanges credentials for a token and user.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	err := s.client.Do(ctx, http.MethodPost, pathLogin, &out,
		apiclient.WithJSON(map[string]string{"email": email, "password": password}),
		apiclient.WithFallbackMessage("Login failed"),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.client.Do(ctx, http.MethodPost, pathLogout, nil, apiclient.WithToken(token))
}

// Profile fetches the current user. It doubles as token validation.
func (s *Service) Profile(ctx context.Context, token string) (*session.User, error) {
	var out profileResponse
	if err := s.client.Do(ctx, http.MethodGet, pathProfile, &out,
		apiclient.WithToken(token),
		apiclient.WithFallbackMessage("Failed to load user profile"),
	); err != nil {
		return nil, err
	}
	if out.User == nil || out.User.ID == "" {
		return nil, ErrEmptyResponse
	}
	return out.User, nil
}

// ChangePassword asks the server to replace the password. The server checks
// currentPassword.
func (s *Service) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (*Result, error) {
	var out Result
	err := s.client.Do(ctx, http.MethodPut, pathChangePassword, &out,
		apiclient.WithToken(token),
		apiclient.WithJSON(map[string]string{
			"currentPassword": currentPassword,
			"newPassword":     newPassword,
		}),
		apiclient.WithFallbackMessage("Failed to change password"),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword requests a reset token by email. The server answers with
// the same success shape whether or not the account exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) (*Result, error) {
	var out Result
	err := s.client.Do(ctx, http.MethodPost, pathForgotPassword, &out,
		apiclient.WithJSON(map[string]string{"email": email}),
		apiclient.WithFallbackMessage("Failed to process forgot password request"),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password using the emailed reset token. The token
// is part of the path and is masked in logs.
func (s *Service) ResetPassword(ctx context.Context, resetToken, password string) (*Result, error) {
	var out Result
	err := s.client.Do(ctx, http.MethodPost, pathResetPassword+url.PathEscape(resetToken), &out,
		apiclient.WithJSON(map[string]string{"password": password}),
		apiclient.WithFallbackMessage("Failed to reset password"),
		apiclient.WithLogPath(pathResetPassword+":token"),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
