package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string { return fmt.Sprintf("server: %d %s", e.Status, e.Message) }

// envelope mirrors the server response body.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

type client struct {
	base string // e.g. http://localhost:8000/api/v1
	http *http.Client
}

func newClient(server string, hc *http.Client) *client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &client{base: strings.TrimRight(server, "/") + "/api/v1", http: hc}
}

// call sends body as JSON (or as-is when it is a *multipartBody) and decodes
// the envelope data into out.
func (c *client) call(ctx context.Context, method, path, bearer string, body any, out any) error {
	var (
		rd io.Reader
		ct string
	)
	switch b := body.(type) {
	case nil:
	case *multipartBody:
		rd, ct = b.buf, b.contentType
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		rd, ct = bytes.NewReader(raw), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &apiError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return &apiError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

type multipartBody struct {
	buf         *bytes.Buffer
	contentType string
}

// newMultipart builds a form from fields and files (form field -> local path).
// Empty paths are skipped.
func newMultipart(fields map[string]string, files map[string]string) (*multipartBody, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	for field, path := range files {
		if path == "" {
			continue
		}
		if err := attach(mw, field, path); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return &multipartBody{buf: buf, contentType: mw.FormDataContentType()}, nil
}

func attach(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// account is the subset of the user payload the CLI prints.
type account struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage,omitempty"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c *client) register(ctx context.Context, fields map[string]string, avatar, cover string) (*account, error) {
	body, err := newMultipart(fields, map[string]string{"avatar": avatar, "coverImage": cover})
	if err != nil {
		return nil, err
	}
	var a account
	if err := c.call(ctx, http.MethodPost, "/users/register", "", body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *client) login(ctx context.Context, username, email, password string) (*account, tokenPair, error) {
	var out struct {
		User *account `json:"user"`
		tokenPair
	}
	in := map[string]string{"username": username, "email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/users/login", "", in, &out); err != nil {
		return nil, tokenPair{}, err
	}
	return out.User, out.tokenPair, nil
}

func (c *client) refresh(ctx context.Context, refreshToken string) (tokenPair, error) {
	var out tokenPair
	err := c.call(ctx, http.MethodPost, "/users/refresh-token", "", map[string]string{"refreshToken": refreshToken}, &out)
	return out, err
}

func (c *client) logout(ctx context.Context, access string) error {
	return c.call(ctx, http.MethodPost, "/users/logout", access, nil, nil)
}

func (c *client) currentUser(ctx context.Context, access string) (*account, error) {
	var a account
	if err := c.call(ctx, http.MethodGet, "/users/current-user", access, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *client) changePassword(ctx context.Context, access, oldPw, newPw string) error {
	in := map[string]string{"oldPassword": oldPw, "newPassword": newPw}
	return c.call(ctx, http.MethodPost, "/users/change-password", access, in, nil)
}
