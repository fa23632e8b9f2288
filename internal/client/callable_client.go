package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quackchatNotification/internal/domain"
)

// IDTokenSource returns the signed-in user's current ID token.
type IDTokenSource func(ctx context.Context) (string, error)

// CallError is a failed call as the server reported it.
type CallError struct {
	Name       string
	StatusCode int
	Status     string
	Message    string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Name, e.Message, e.Status)
}

// Unwrap lets callers use errors.Is with the domain sentinels.
func (e *CallError) Unwrap() error {
	switch e.Status {
	case "UNAUTHENTICATED":
		return domain.ErrUnauthenticated
	case "INVALID_ARGUMENT":
		return domain.ErrInvalidArgument
	default:
		return nil
	}
}

// CallableClient invokes the callable operations over HTTP. Calls are
// bounded only by ctx and the transport defaults.
type CallableClient struct {
	baseURL    string
	idToken    IDTokenSource
	httpClient *http.Client
}

func NewCallableClient(baseURL string, idToken IDTokenSource) *CallableClient {
	return &CallableClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		idToken:    idToken,
		httpClient: &http.Client{},
	}
}

func (c *CallableClient) UpdateUserToken(ctx context.Context, token string) error {
	return c.call(ctx, "updateUserToken", map[string]string{"token": token}, nil)
}

func (c *CallableClient) SubscribeToRoom(ctx context.Context, roomID string) error {
	return c.call(ctx, "subscribeToRoomNotifications", map[string]string{"roomId": roomID}, nil)
}

func (c *CallableClient) UnsubscribeFromRoom(ctx context.Context, roomID string) error {
	return c.call(ctx, "unsubscribeFromRoomNotifications", map[string]string{"roomId": roomID}, nil)
}

func (c *CallableClient) SendTestNotification(ctx context.Context) (TestNotificationResult, error) {
	var result TestNotificationResult
	err := c.call(ctx, "sendTestNotification", map[string]string{}, &result)
	return result, err
}

func (c *CallableClient) call(ctx context.Context, name string, data, out interface{}) error {
	body, err := json.Marshal(map[string]interface{}{"data": data})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.idToken != nil {
		token, err := c.idToken(ctx)
		if err != nil {
			return fmt.Errorf("get id token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", name, err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error struct {
				Status  string `json:"status"`
				Message string `json:"message"`
			} `json:"error"`
		}
		callErr := &CallError{Name: name, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Status != "" {
			callErr.Status = envelope.Error.Status
			callErr.Message = envelope.Error.Message
		}
		return callErr
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", name, err)
	}
	return nil
}
