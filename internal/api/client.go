// Package api implements the HTTP client for the GST Automation Tool
// server. Every outbound request is prefixed with the configured base URL
// and, when a bearer token is persisted, carries an Authorization header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/nuverotech/gst-automation-tool/internal/config"
	"github.com/nuverotech/gst-automation-tool/internal/model"
)

// TokenSource supplies the persisted bearer token, if any. It is read on
// every outbound request and written only by login/logout.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to one server instance.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
}

// New constructs a Client from config. tokens may be nil for a client that
// never authenticates.
func New(cfg *config.Config, tokens TokenSource) *Client {
	return &Client{
		baseURL: cfg.APIURL,
		httpc:   &http.Client{Timeout: cfg.HTTPTimeout},
		tokens:  tokens,
	}
}

// HTTPClient exposes the underlying client so tests can intercept its
// transport.
func (c *Client) HTTPClient() *http.Client {
	return c.httpc
}

// SignupRequest is the registration payload.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Signup registers a new account and returns the created user record.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signup", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*model.Token, error) {
	body := map[string]string{"username": username, "password": password}
	var tok model.Token
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", body, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Me resolves the persisted token into the current user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/user/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Uploads fetches the caller's full upload history. The result is a
// point-in-time snapshot; it is never refreshed behind the caller's back.
func (c *Client) Uploads(ctx context.Context) ([]model.Upload, error) {
	var uploads []model.Upload
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/user/uploads", nil, &uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}

// UploadFile submits one spreadsheet as a multipart request (form field
// "file") and returns the created upload record.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*model.Upload, error) {
	resp, err := c.postMultipart(ctx, "/api/v1/upload", filename, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}
	var upload model.Upload
	if err := decodeEnvelope(resp, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}

// Status fetches the server-reported processing state for one upload.
func (c *Client) Status(ctx context.Context, id int) (*model.UploadStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/status/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch status %d: %w", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}
	var status model.UploadStatus
	if err := decodeEnvelope(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Download streams the processed artifact for a completed upload into w. It
// returns the server-suggested filename (empty when the server sends none)
// and the number of bytes written. Failures are reported as *DownloadError.
func (c *Client) Download(ctx context.Context, id int, w io.Writer) (string, int64, error) {
	return c.downloadPath(ctx, "/api/v1/download/"+strconv.Itoa(id), w)
}

// Health probes the liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// TemplateInfo describes which GST template is active for the account.
type TemplateInfo struct {
	IsCustom     bool   `json:"is_custom"`
	TemplateName string `json:"template_name"`
	CanDelete    bool   `json:"can_delete"`
}

// UploadTemplate replaces the account's custom GST template and returns the
// stored template name.
func (c *Client) UploadTemplate(ctx context.Context, filename string, r io.Reader) (string, error) {
	resp, err := c.postMultipart(ctx, "/api/v1/template/upload", filename, r)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", decodeError(resp)
	}
	var data struct {
		TemplatePath string `json:"template_path"`
	}
	if err := decodeEnvelope(resp, &data); err != nil {
		return "", err
	}
	return data.TemplatePath, nil
}

// DeleteTemplate removes the custom template, reverting to the default.
func (c *Client) DeleteTemplate(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/template/", nil, nil)
}

// CurrentTemplate reports which template the server will use for the
// account's uploads.
func (c *Client) CurrentTemplate(ctx context.Context) (*TemplateInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/template/current", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch template info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}
	var info TemplateInfo
	if err := decodeEnvelope(resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DownloadDefaultTemplate streams the stock GST template into w.
func (c *Client) DownloadDefaultTemplate(ctx context.Context, w io.Writer) (string, int64, error) {
	return c.downloadPath(ctx, "/api/v1/template/download-default", w)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// postMultipart streams the reader through an io.Pipe so large spreadsheets
// never sit in memory whole.
func (c *Client) postMultipart(ctx context.Context, path, filename string, r io.Reader) (*http.Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()
	req, err := c.newRequest(ctx, http.MethodPost, path, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) downloadPath(ctx context.Context, path string, w io.Writer) (string, int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", 0, &DownloadError{Err: err}
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", 0, &DownloadError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, &DownloadError{Err: decodeError(resp)}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return "", n, &DownloadError{Err: fmt.Errorf("stream artifact: %w", err)}
	}
	return suggestedFilename(resp), n, nil
}

func suggestedFilename(resp *http.Response) string {
	cd := resp.Header.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}
