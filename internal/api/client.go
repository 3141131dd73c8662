// Package api is the HTTP client of the NutriLens REST API.
//
// Every authenticated call sends "Authorization: Token <key>". No client-side
// timeout is set; calls end when the context is cancelled or the transport
// reports a failure.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/nutrilens/nlens/internal/logging"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/"

	endpointLogin    = "accounts/login/"
	endpointRegister = "accounts/register/"
	endpointProfile  = "accounts/my-info/"
	endpointChat     = "accounts/chat/"
	endpointImage    = "accounts/image-analyze/"
	endpointHybrid   = "accounts/hybrid-analyze/"
	endpointEvaluate = "accounts/evaluate/"
	endpointHistory  = "accounts/history/"
)

// Client talks to the NutriLens server.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the API rooted at baseURL. The token may be
// empty for unauthenticated calls (login, register).
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		token:      token,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken replaces the authentication token.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var res LoginResult
	if err := c.doJSON(ctx, http.MethodPost, endpointLogin, body, &res, false); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login response did not contain a token")
	}
	return &res, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.doJSON(ctx, http.MethodPost, endpointRegister, req, nil, false)
}

// Profile returns the health profile of the authenticated user.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.doJSON(ctx, http.MethodGet, endpointProfile, nil, &p, true); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies a partial profile change.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) error {
	raw, err := json.Marshal(upd)
	if err != nil {
		return fmt.Errorf("error marshaling profile update: %w", err)
	}
	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("error marshaling profile update: %w", err)
	}
	for k, v := range upd.Conditions {
		body[k] = v
	}
	if len(body) == 0 {
		return fmt.Errorf("profile update has no fields")
	}
	return c.doJSON(ctx, http.MethodPut, endpointProfile, body, nil, true)
}

// SubmitTextNote records a free-text meal description.
func (c *Client) SubmitTextNote(ctx context.Context, content string) (*TextNoteResult, error) {
	var res TextNoteResult
	body := map[string]string{"content": content}
	if err := c.doJSON(ctx, http.MethodPost, endpointChat, body, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitImageBatch uploads meal photos with an optional note.
func (c *Client) SubmitImageBatch(ctx context.Context, images []Image, note string) (*ImageBatchResult, error) {
	var res ImageBatchResult
	if err := c.doMultipart(ctx, endpointImage, images, "note", note, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitCombinedBatch uploads photos and text together. Either part may be
// empty.
func (c *Client) SubmitCombinedBatch(ctx context.Context, images []Image, text string) (*CombinedBatchResult, error) {
	var res CombinedBatchResult
	if err := c.doMultipart(ctx, endpointHybrid, images, "text", text, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RequestEvaluation scores everything recorded today.
func (c *Client) RequestEvaluation(ctx context.Context) (*Evaluation, error) {
	var res Evaluation
	if err := c.doJSON(ctx, http.MethodPost, endpointEvaluate, nil, &res, true); err != nil {
		return nil, err
	}
	return &res, nil
}

// History returns one page of evaluated days, newest first. Pages start at 1;
// an empty slice means there are no more pages.
func (c *Client) History(ctx context.Context, page int) ([]DailyHistory, error) {
	if page < 1 {
		page = 1
	}
	var res []DailyHistory
	endpoint := endpointHistory + "?page=" + strconv.Itoa(page)
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &res, true); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any, auth bool) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, endpoint, body, contentType, out, auth)
}

func (c *Client) doMultipart(ctx context.Context, endpoint string, images []Image, textField, text string, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, img := range images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, img.Name))
		mediaType := img.MediaType
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		h.Set("Content-Type", mediaType)
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("error creating multipart part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return fmt.Errorf("error writing image %s: %w", img.Name, err)
		}
	}
	if text = strings.TrimSpace(text); text != "" {
		if err := w.WriteField(textField, text); err != nil {
			return fmt.Errorf("error writing %s field: %w", textField, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("error closing multipart body: %w", err)
	}

	return c.do(ctx, http.MethodPost, endpoint, &buf, w.FormDataContentType(), out, true)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string, out any, auth bool) error {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	target := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	log := logging.FromContext(ctx, c.logger).With("endpoint", endpoint, "method", method)
	log.Debug("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("reading response: %w", err)}
	}
	log.Debug("received response", "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newRemoteError(endpoint, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error parsing response from %s: %w", endpoint, err)
	}
	return nil
}
