package main

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

	"github.com/gorilla/websocket"

	"github.com/jwebster45206/heartbeat-engine/internal/heartbeat"
	"github.com/jwebster45206/heartbeat-engine/internal/services/events"
	"github.com/jwebster45206/heartbeat-engine/internal/session"
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

func postJSON(client *http.Client, endpoint string, reqBody any, out any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(endpoint, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

type runtimeRequest struct {
	PlayerID    string `json:"playerID"`
	CharacterID string `json:"characterID"`
	Action      string `json:"action"`
}

type runtimeResponse struct {
	Success bool `json:"success"`
	Runtime struct {
		RuntimeState session.RuntimeState `json:"runtimeState"`
	} `json:"runtime"`
}

func setRuntime(client *http.Client, baseURL, playerID, characterID string, action session.RuntimeAction) (session.RuntimeState, error) {
	var resp runtimeResponse
	err := postJSON(client, baseURL+"/v1/runtime/heartbeat", runtimeRequest{
		PlayerID:    playerID,
		CharacterID: characterID,
		Action:      string(action),
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to %s: %w", action, err)
	}
	return resp.Runtime.RuntimeState, nil
}

type resolveRequest struct {
	PlayerID    string `json:"playerID"`
	CharacterID string `json:"characterID"`
	Choice      string `json:"choice"`
}

func resolveChoice(client *http.Client, baseURL, playerID, characterID, key string) (*heartbeat.Resolution, error) {
	var resp heartbeat.Resolution
	err := postJSON(client, baseURL+"/v1/runtime/resolve-choice", resolveRequest{
		PlayerID:    playerID,
		CharacterID: characterID,
		Choice:      key,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve choice: %w", err)
	}
	return &resp, nil
}

// SocketEvent is an event frame as received from the server.
type SocketEvent struct {
	Type events.EventType `json:"type"`
	Data json.RawMessage  `json:"data"`
}

// socketURL turns the API base URL into the player's websocket endpoint.
func socketURL(baseURL, playerID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid API base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/ws"
	u.RawQuery = url.Values{"playerID": {playerID}}.Encode()
	return u.String(), nil
}

// listenToSocket streams the player's events to eventChan until the socket
// closes or ctx is cancelled.
func listenToSocket(ctx context.Context, baseURL, playerID string, eventChan chan<- SocketEvent) error {
	endpoint, err := socketURL(baseURL, playerID)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("socket closed: %w", err)
		}
		var ev SocketEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		select {
		case eventChan <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
