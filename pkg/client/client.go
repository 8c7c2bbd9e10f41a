// Package client is a typed HTTP client for the TripTree API. It keeps the
// session cookie in a cookie jar, so one Client acts as one signed-in user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

// APIError is a non-2xx answer from the API. It matches the domain sentinel
// for its status code under errors.Is.
type APIError struct {
	Status  int
	Message string
	Fields  []domain.FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusBadRequest:
		return target == domain.ErrValidation
	case http.StatusUnauthorized:
		if target == domain.ErrInvalidCredentials {
			return e.Message == "Invalid credentials"
		}
		return target == domain.ErrUnauthorized
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	case http.StatusConflict:
		return target == domain.ErrConflict
	case http.StatusServiceUnavailable:
		return target == domain.ErrUploadsDisabled
	}
	return false
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var payload struct {
			Error  string              `json:"error"`
			Fields []domain.FieldError `json:"fields"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Fields = payload.Fields
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type userEnvelope struct {
	User domain.AccountSummary `json:"user"`
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) Signup(ctx context.Context, in domain.SignupInput) (domain.AccountSummary, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPost, "/auth/signup", in, &out)
	return out.User, err
}

func (c *Client) Login(ctx context.Context, in domain.LoginInput) (domain.AccountSummary, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPost, "/auth/login", in, &out)
	return out.User, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodPut, "/me", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Public(ctx context.Context, username string) (*domain.PublicProfile, error) {
	var out domain.PublicProfile
	if err := c.do(ctx, http.MethodGet, "/public/"+url.PathEscape(username), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListLinks(ctx context.Context) ([]domain.Link, error) {
	var out []domain.Link
	err := c.do(ctx, http.MethodGet, "/links", nil, &out)
	return out, err
}

func (c *Client) CreateLink(ctx context.Context, in domain.LinkInput) (*domain.Link, error) {
	var out domain.Link
	if err := c.do(ctx, http.MethodPost, "/links", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateLink(ctx context.Context, id string, in domain.LinkInput) (*domain.Link, error) {
	var out domain.Link
	if err := c.do(ctx, http.MethodPut, "/links/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteLink(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/links/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	var out []domain.Place
	err := c.do(ctx, http.MethodGet, "/places", nil, &out)
	return out, err
}

func (c *Client) CreatePlace(ctx context.Context, in domain.PlaceInput) (*domain.Place, error) {
	var out domain.Place
	if err := c.do(ctx, http.MethodPost, "/places", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePlace(ctx context.Context, id string, in domain.PlaceInput) (*domain.Place, error) {
	var out domain.Place
	if err := c.do(ctx, http.MethodPut, "/places/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePlace(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/places/"+url.PathEscape(id), nil, nil)
}

func (c *Client) PresignUpload(ctx context.Context, req domain.UploadRequest) (*domain.Upload, error) {
	var out domain.Upload
	if err := c.do(ctx, http.MethodPost, "/me/uploads", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile PUTs data to a presigned URL. The session cookie is not sent.
func UploadFile(ctx context.Context, uploadURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
