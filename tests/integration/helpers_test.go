package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

// storefrontPort is where a locally running storefront listens.
const storefrontPort = 8000

// baseURL returns the base URL for the storefront.
func baseURL() string {
	return fmt.Sprintf("http://localhost:%d", storefrontPort)
}

// skipIfNotRunning performs a quick health check against the storefront.
// If it is unreachable, the test is skipped (not failed).
func skipIfNotRunning(t *testing.T) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL() + "/health/live")
	if err != nil {
		t.Skipf("storefront on port %d not reachable (Docker not running?): %v", storefrontPort, err)
	}
	resp.Body.Close()
}

// noRedirectClient returns an HTTP client that reports redirects instead of
// following them, so tests can assert on Location headers.
func noRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// httpGet performs a GET request and returns the status code and decoded JSON body.
func httpGet(t *testing.T, url string, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("creating GET request for %s failed: %v", url, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeBody(t, resp.Body)
}

// postForm submits an urlencoded form without following redirects and
// returns the status code and Location header.
func postForm(t *testing.T, target string, form url.Values) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("creating POST request for %s failed: %v", target, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := noRedirectClient().Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", target, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, resp.Header.Get("Location")
}

// decodeBody decodes a JSON response body into a generic map.
func decodeBody(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading response body failed: %v", err)
	}
	if len(data) == 0 {
		return nil
	}
	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decoding response body failed: %v\nbody: %s", err, data)
	}
	return body
}

// extractField walks a dotted path ("data.products") through nested maps.
func extractField(body map[string]interface{}, path string) interface{} {
	current := interface{}(body)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}
