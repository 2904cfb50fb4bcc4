package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
)

// APIClient talks to the Hoterier REST API. One instance per session; the
// bearer token is attached to every request once set.
type APIClient struct {
	baseURL     string
	httpClient  *http.Client
	accessToken string
	cache       *cache.Cache
}

// New reads the server URL from the environment and verifies reachability
// against the health endpoint before returning a client.
func New() (*APIClient, error) {
	_ = godotenv.Load()

	serverURL := os.Getenv("HOTERIER_SERVER_URL")
	if serverURL == "" {
		return nil, fmt.Errorf("HOTERIER_SERVER_URL is not set")
	}

	c := NewWithBase(serverURL)

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned unexpected status: %s", resp.Status)
	}
	return c, nil
}

// NewWithBase builds a client against an explicit server URL without the
// health probe. Used by tests and the dev server harness.
func NewWithBase(serverURL string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(serverURL, "/") + "/api",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache.New(5*time.Minute, 30*time.Second),
	}
}

func (c *APIClient) SetToken(token string) {
	c.accessToken = token
	c.cache.Flush()
}

// StatusError is a non-2xx REST response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %s, Response: %s", e.Status, e.Body)
}

func (c *APIClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.doRequest(req)
}

func (c *APIClient) post(ctx context.Context, path string, data any) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req)
}

// postMultipart uploads a file under the "image" form field with optional
// extra text fields.
func (c *APIClient) postMultipart(ctx context.Context, path, filename string, file io.Reader, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.doRequest(req)
}

func (c *APIClient) doRequest(req *http.Request) ([]byte, error) {
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	return body, nil
}
