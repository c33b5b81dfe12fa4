package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subforge/internal/logger"
	"subforge/internal/publishers"
)

type Publisher struct{}

type githubFileRequest struct {
	Message string `json:"message"`
	Content string `json:"content"` // Base64 encoded content
	Sha     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type githubFileResponse struct {
	Sha string `json:"sha"`
}

// Publish commits the document to a file in a GitHub repository through the
// contents API, creating or updating it.
func (p *Publisher) Publish(ctx context.Context, document string, config map[string]interface{}) error {
	payload := publishers.Payload(document, config)

	token := publishers.Param(config, "token")
	owner := publishers.Param(config, "owner")
	repo := publishers.Param(config, "repo")
	path := publishers.Param(config, "path")
	branch := publishers.Param(config, "branch")
	msg := publishers.Param(config, "message")

	apiBase := publishers.Param(config, "api_url")
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	apiBase = strings.TrimRight(apiBase, "/")
	retries := publishers.IntParam(config, "_retries", 0)

	if token == "" || owner == "" || repo == "" || path == "" {
		return fmt.Errorf("git publisher requires token, owner, repo, and path")
	}
	if msg == "" {
		msg = "Update proxy configuration [subforge]"
	}

	path = strings.TrimPrefix(path, "/")
	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", apiBase, owner, repo, path)
	client := publishers.HTTPClient(config, 30*time.Second)

	var (
		currentSha string
		respGet    *http.Response
		err        error
	)
	for i := 0; i <= retries; i++ {
		reqGet, _ := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		reqGet.Header.Set("Authorization", "Bearer "+token)
		reqGet.Header.Set("Accept", "application/vnd.github.v3+json")

		if branch != "" {
			q := reqGet.URL.Query()
			q.Add("ref", branch)
			reqGet.URL.RawQuery = q.Encode()
		}

		logger.Log.Debugf("Git: Fetching file info (Attempt %d/%d)", i+1, retries+1)
		respGet, err = client.Do(reqGet)
		if err == nil && (respGet.StatusCode == 200 || respGet.StatusCode == 404) {
			break
		}

		if err == nil {
			respGet.Body.Close()
			err = fmt.Errorf("status %d", respGet.StatusCode)
		}

		if i < retries {
			time.Sleep(1 * time.Second)
		}
	}

	if err != nil {
		return fmt.Errorf("git fetch failed after retries: %w", err)
	}
	defer respGet.Body.Close()

	if respGet.StatusCode == 200 {
		var existing githubFileResponse
		if err := json.NewDecoder(respGet.Body).Decode(&existing); err != nil {
			return fmt.Errorf("failed to parse git response: %w", err)
		}
		currentSha = existing.Sha
		logger.Log.Debugf("Git: File exists (SHA: %s), updating...", currentSha)
	} else if respGet.StatusCode == 404 {
		currentSha = ""
		logger.Log.Debugf("Git: File not found, creating new...")
	} else {
		return fmt.Errorf("git unexpected status: %d", respGet.StatusCode)
	}

	contentEncoded := base64.StdEncoding.EncodeToString([]byte(payload))
	reqBody := githubFileRequest{
		Message: msg,
		Content: contentEncoded,
		Sha:     currentSha,
		Branch:  branch,
	}
	jsonBody, _ := json.Marshal(reqBody)

	var respPut *http.Response
	for i := 0; i <= retries; i++ {
		reqPut, _ := http.NewRequestWithContext(ctx, http.MethodPut, apiURL, bytes.NewReader(jsonBody))
		reqPut.Header.Set("Authorization", "Bearer "+token)
		reqPut.Header.Set("Content-Type", "application/json")
		reqPut.Header.Set("Accept", "application/vnd.github.v3+json")

		logger.Log.Debugf("Git: Uploading file (Attempt %d/%d)", i+1, retries+1)
		respPut, err = client.Do(reqPut)
		if err == nil && (respPut.StatusCode >= 200 && respPut.StatusCode < 300) {
			break
		}

		if err == nil {
			bodyBytes, _ := io.ReadAll(respPut.Body)
			respPut.Body.Close()
			err = fmt.Errorf("status %d: %s", respPut.StatusCode, string(bodyBytes))
		}

		if i < retries {
			time.Sleep(1 * time.Second)
		}
	}

	if err != nil {
		return fmt.Errorf("git upload failed after retries: %w", err)
	}
	defer respPut.Body.Close()

	return nil
}

func init() {
	publishers.Register("github", func() publishers.Publisher { return &Publisher{} })
}
