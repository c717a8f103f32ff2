package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vasiliy-maslov/order-portal/internal/user"
)

const (
	msgLoginFailed        = "Login failed"
	msgEmailNotRegistered = "The email address you entered is not registered."
	msgResetFailed        = "Failed to request password reset. Please try again."
	msgResetSent          = "Password reset email sent. Please check your inbox."
)

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Message string
	UserID  int64
}

func (c *Client) Register(ctx context.Context, reg user.Registration) (*user.User, error) {
	req := registerRequest{
		UserName: reg.Username,
		Password: reg.Password,
		Address:  reg.Address,
		Email:    reg.Email,
	}

	var resp userDTO
	if err := c.do(ctx, http.MethodPost, req, &resp, "register"); err != nil {
		return nil, err
	}

	// Some backend revisions answer with {message, user_id} only.
	created := user.User{
		ID:       resp.UserID,
		Username: firstNonEmpty(resp.UserName, reg.Username),
		Address:  firstNonEmpty(resp.Address, reg.Address),
		Email:    firstNonEmpty(resp.Email, reg.Email),
	}
	return &created, nil
}

// Login authenticates with a username and password. A 2xx answer without a
// user id is treated as a rejected login.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, loginRequest{UserName: username, Password: password}, &resp, "login"); err != nil {
		return nil, err
	}
	return loginResult(resp)
}

// LoginWithGoogle exchanges a federated identity token for a portal user.
func (c *Client) LoginWithGoogle(ctx context.Context, token string) (*LoginResult, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, googleLoginRequest{Token: token}, &resp, "login", "google"); err != nil {
		return nil, err
	}
	return loginResult(resp)
}

func loginResult(resp loginResponse) (*LoginResult, error) {
	if resp.UserID <= 0 {
		return nil, rejected(firstNonEmpty(nonSuccessMessage(resp.Message), msgLoginFailed))
	}
	return &LoginResult{Message: resp.Message, UserID: resp.UserID}, nil
}

// nonSuccessMessage drops a success message that came without a user id.
func nonSuccessMessage(msg string) string {
	if strings.Contains(strings.ToLower(msg), "successful") {
		return ""
	}
	return msg
}

// ForgotPassword asks the backend to email a reset link and returns the text
// to show to the user.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp forgotPasswordResponse
	err := c.do(ctx, http.MethodPost, forgotPasswordRequest{Email: email}, &resp, "forgot-password")
	if err != nil {
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Kind == KindTransport {
			return "", err
		}
		if apiErr.StatusCode == http.StatusNotFound || strings.Contains(apiErr.Message, "Not Found") {
			return "", &Error{Kind: apiErr.Kind, StatusCode: apiErr.StatusCode, Message: msgEmailNotRegistered, Err: apiErr}
		}
		return "", &Error{Kind: apiErr.Kind, StatusCode: apiErr.StatusCode, Message: msgResetFailed, Err: apiErr}
	}

	if resp.Success != nil && !*resp.Success {
		return "", rejected(firstNonEmpty(resp.Message, msgResetFailed))
	}
	return firstNonEmpty(resp.Message, msgResetSent), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
