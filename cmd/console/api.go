package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jwebster45206/fairytale-engine/internal/bot"
	"github.com/jwebster45206/fairytale-engine/internal/handlers"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// decodeResponse reads body into out, or turns an error status into an error.
func decodeResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp handlers.ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("API error: %s", errorResp.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func sendCommand(client *http.Client, baseURL, userID, text string) (*bot.Reply, error) {
	jsonData, err := json.Marshal(bot.Request{UserID: userID, ChatID: "console", Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/commands", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var reply bot.Reply
	if err := decodeResponse(resp, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func getProfile(client *http.Client, baseURL, userID string) (*handlers.ProfileView, error) {
	resp, err := client.Get(baseURL + "/v1/profiles/" + url.PathEscape(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	var view handlers.ProfileView
	if err := decodeResponse(resp, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// saveAttachment writes a story file into dir and returns its path.
func saveAttachment(dir string, a *bot.Attachment) (string, error) {
	path := filepath.Join(dir, filepath.Base(a.Filename))
	if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", a.Filename, err)
	}
	return path, nil
}
