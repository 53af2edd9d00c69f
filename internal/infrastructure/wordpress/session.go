package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
)

const apiBase = "/wp-json/wp/v2"

// Session is an authenticated WordPress REST session using basic auth with
// an application password. It serves media uploads and taxonomy lookups.
type Session struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	log        *zap.SugaredLogger
}

// NewSession builds a session and probes the authenticated users/me
// endpoint. Missing credentials return ErrNotConfigured, which callers may
// treat as "skip image sync"; rejected credentials are always surfaced as a
// typed UnauthenticatedError.
func NewSession(rawURL, username, appPassword string, log *zap.SugaredLogger) (*Session, error) {
	if username == "" || appPassword == "" {
		return nil, domain.ErrNotConfigured
	}

	s := &Session{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:  normalizeBaseURL(rawURL),
		username: username,
		password: appPassword,
		log:      log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := s.probe(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

// Ping re-authenticates against the content API. Used by the connection
// test endpoint.
func (s *Session) Ping(ctx context.Context) error {
	return s.probe(ctx)
}

// probe checks that the credentials resolve to a user
func (s *Session) probe(ctx context.Context) error {
	resp, body, err := s.do(ctx, http.MethodGet, "users/me", nil, "", nil)
	if err != nil {
		return &domain.UnavailableError{Message: err.Error()}
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		s.log.Infow("content API session authenticated", "url", s.baseURL)
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.UnauthenticatedError{Status: resp.StatusCode, Message: remoteMessage(body)}
	default:
		return &domain.UnavailableError{Status: resp.StatusCode, Message: remoteMessage(body)}
	}
}

// do executes one request against {base}/wp-json/wp/v2/{path} with basic
// auth. contentType and raw are used for binary uploads; payload for JSON.
func (s *Session) do(ctx context.Context, method, path string, payload interface{}, contentType string, raw []byte) (*http.Response, []byte, error) {
	reqURL := fmt.Sprintf("%s%s/%s", s.baseURL, apiBase, strings.TrimPrefix(path, "/"))

	var reqBody io.Reader
	switch {
	case raw != nil:
		reqBody = bytes.NewReader(raw)
	case payload != nil:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.username, s.password)
	req.Header.Set("User-Agent", "woosync/1.0")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, body, nil
}

func remoteMessage(body []byte) string {
	var remoteErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &remoteErr); err == nil && remoteErr.Message != "" {
		return remoteErr.Message
	}
	return strings.TrimSpace(string(body))
}

// UploadMedia posts raw image bytes to the media library and returns the
// new media ID. One attempt, no retry; a 2xx response without an ID is
// reported as malformed.
func (s *Session) UploadMedia(ctx context.Context, filename string, data []byte) (int64, error) {
	resp, body, err := s.doUpload(ctx, filename, data)
	if err != nil {
		return 0, &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, classify(resp.StatusCode, body)
	}

	var media struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &media); err != nil || media.ID == 0 {
		return 0, &domain.MalformedError{Body: string(body)}
	}
	s.log.Infow("uploaded image to media library", "mediaId", media.ID, "filename", filename)
	return media.ID, nil
}

func (s *Session) doUpload(ctx context.Context, filename string, data []byte) (*http.Response, []byte, error) {
	reqURL := fmt.Sprintf("%s%s/media", s.baseURL, apiBase)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.username, s.password)
	req.Header.Set("User-Agent", "woosync/1.0")
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, body, nil
}

// SearchTerms searches a taxonomy by name. The server-side search is fuzzy;
// callers must enforce exact matching on the results.
func (s *Session) SearchTerms(ctx context.Context, taxonomy, query string) ([]domain.Term, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("per_page", "10")
	path := fmt.Sprintf("%s?%s", taxonomy, params.Encode())

	resp, body, err := s.do(ctx, http.MethodGet, path, nil, "", nil)
	if err != nil {
		return nil, &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, body)
	}
	var terms []domain.Term
	if err := json.Unmarshal(body, &terms); err != nil {
		return nil, &domain.MalformedError{Body: string(body)}
	}
	return terms, nil
}

// CreateTerm creates a new taxonomy term by name
func (s *Session) CreateTerm(ctx context.Context, taxonomy, name string) (*domain.Term, error) {
	resp, body, err := s.do(ctx, http.MethodPost, taxonomy, map[string]string{"name": name}, "", nil)
	if err != nil {
		return nil, &domain.UnavailableError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, classify(resp.StatusCode, body)
	}
	var term domain.Term
	if err := json.Unmarshal(body, &term); err != nil || term.ID == 0 {
		return nil, &domain.MalformedError{Body: string(body)}
	}
	return &term, nil
}

// classify converts a non-2xx response into a typed error
func classify(status int, body []byte) error {
	if status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	var remoteErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &remoteErr); err != nil || remoteErr.Message == "" {
		return &domain.RemoteRejectedError{Status: status, Message: strings.TrimSpace(string(body))}
	}
	return &domain.RemoteRejectedError{Status: status, Code: remoteErr.Code, Message: remoteErr.Message}
}
