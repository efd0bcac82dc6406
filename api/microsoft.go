package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mrnavastar/mclaunch/util"
)

const Scopes = "XboxLive.signin offline_access"

// OAuthError is an error reported by the Microsoft identity platform.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

type DeviceCode struct {
	DeviceCode       string `json:"device_code"`
	UserCode         string `json:"user_code"`
	VerificationUri  string `json:"verification_uri"`
	ExpiresIn        int    `json:"expires_in"`
	Interval         int    `json:"interval"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// postForm sends a form-encoded request and decodes the JSON reply whatever
// the status, since the identity platform reports errors in the body.
func (c *Client) postForm(ctx context.Context, url string, form map[string]string, out interface{}) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetFormData(form).
		Post(url)
	if err != nil {
		return err
	}
	if err1 := json.Unmarshal(resp.Body(), out); err1 != nil {
		if resp.IsError() {
			return &StatusError{Status: resp.StatusCode(), Url: url}
		}
		return fmt.Errorf("%w: %s: %v", util.ErrMalformed, url, err1)
	}
	return nil
}

func (c *Client) RequestDeviceCode(ctx context.Context) (DeviceCode, error) {
	var code DeviceCode
	err := c.postForm(ctx, c.Endpoints.DeviceCode, map[string]string{
		"client_id": c.ClientId,
		"scope":     Scopes,
	}, &code)
	if err != nil {
		return DeviceCode{}, err
	}
	if code.Error != "" {
		return DeviceCode{}, &OAuthError{Code: code.Error, Description: code.ErrorDescription}
	}
	if code.DeviceCode == "" || code.UserCode == "" {
		return DeviceCode{}, fmt.Errorf("%w: device code response without a code", util.ErrMalformed)
	}
	return code, nil
}

// PollToken asks once whether the user finished the device-code login. A
// pending login comes back as a response with Error set, not as an error.
func (c *Client) PollToken(ctx context.Context, deviceCode string) (TokenResponse, error) {
	var token TokenResponse
	err := c.postForm(ctx, c.Endpoints.Token, map[string]string{
		"client_id":   c.ClientId,
		"grant_type":  "urn:ietf:params:oauth:grant-type:device_code",
		"device_code": deviceCode,
	}, &token)
	return token, err
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	var token TokenResponse
	err := c.postForm(ctx, c.Endpoints.Token, map[string]string{
		"client_id":     c.ClientId,
		"refresh_token": refreshToken,
		"grant_type":    "refresh_token",
		"scope":         Scopes,
	}, &token)
	if err != nil {
		return TokenResponse{}, err
	}
	if token.Error != "" {
		return TokenResponse{}, &OAuthError{Code: token.Error, Description: token.ErrorDescription}
	}
	if token.AccessToken == "" {
		return TokenResponse{}, fmt.Errorf("%w: refresh response without an access token", util.ErrMalformed)
	}
	return token, nil
}
