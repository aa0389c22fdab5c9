package console

import (
	"context"

	"github.com/medbook/console/internal/platform/apiclient"
)

// Credentials is the login form.
type Credentials struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// OTPCode is the one-time code step that follows a login answered with
// otpRequired. Either the temporary token or the user id identifies the
// pending login.
type OTPCode struct {
	OTP       string `json:"otp" validate:"required"`
	TempToken string `json:"tempToken,omitempty" validate:"required_without=UserID"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// LoginResult is the upstream's answer to a login or OTP check.
type LoginResult struct {
	AccessToken string
	OTPRequired bool
	TempToken   string
	UserID      string
	Message     string
}

// Accounts is the upstream identity API.
type Accounts interface {
	Login(ctx context.Context, cred Credentials) (*LoginResult, error)
	VerifyOTP(ctx context.Context, code OTPCode) (*LoginResult, error)
}

type accountsHTTP struct {
	client *apiclient.Client
}

func NewAccountsHTTP(client *apiclient.Client) Accounts {
	return &accountsHTTP{client: client}
}

type loginWire struct {
	AccessToken string               `json:"accessToken"`
	Token       string               `json:"token"`
	OTPRequired bool                 `json:"otpRequired"`
	TempToken   string               `json:"tempToken"`
	UserID      apiclient.FlexString `json:"userId"`
	Message     string               `json:"message"`
}

func (w loginWire) result() *LoginResult {
	return &LoginResult{
		AccessToken: apiclient.FirstNonEmpty(w.AccessToken, w.Token),
		OTPRequired: w.OTPRequired,
		TempToken:   w.TempToken,
		UserID:      string(w.UserID),
		Message:     w.Message,
	}
}

func (a *accountsHTTP) Login(ctx context.Context, cred Credentials) (*LoginResult, error) {
	var w loginWire
	if err := a.client.Post(ctx, "", "/login", cred, &w); err != nil {
		return nil, err
	}
	return w.result(), nil
}

func (a *accountsHTTP) VerifyOTP(ctx context.Context, code OTPCode) (*LoginResult, error) {
	body := map[string]string{"otp": code.OTP, "email": code.Email}
	if code.TempToken != "" {
		body["tempToken"] = code.TempToken
	} else {
		body["userId"] = code.UserID
	}
	var w loginWire
	if err := a.client.Post(ctx, "", "/verify-otp", body, &w); err != nil {
		return nil, err
	}
	return w.result(), nil
}
