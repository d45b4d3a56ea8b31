package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skill-board/internal/config"
)

const defaultBaseURL = "https://slack.com/api"

// Client is a thin wrapper over the handful of Slack Web API methods this
// service needs.
type Client struct {
	baseURL      string
	botToken     string
	clientID     string
	clientSecret string
	redirectURL  string
	httpc        *http.Client
	logger       *log.Logger
}

func NewClient(cfg config.SlackConfig, logger *log.Logger) *Client {
	return &Client{
		baseURL:      defaultBaseURL,
		botToken:     strings.TrimSpace(cfg.BotToken),
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		redirectURL:  strings.TrimSpace(cfg.AuthCallbackURL),
		httpc:        &http.Client{Timeout: 5 * time.Second},
		logger:       logger,
	}
}

// WithBaseURL overrides the API endpoint, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	return c
}

type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// Notify posts a plain-text direct message to the user.
func (c *Client) Notify(ctx context.Context, userID string, text string) error {
	var out apiEnvelope
	if err := c.postJSON(ctx, "chat.postMessage", postMessageRequest{Channel: userID, Text: text}, &out); err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("chat.postMessage failed: %s", out.Error)
	}
	return nil
}

type openViewRequest struct {
	TriggerID string          `json:"trigger_id"`
	View      json.RawMessage `json:"view"`
}

// OpenView opens a modal for the given interaction trigger.
func (c *Client) OpenView(ctx context.Context, triggerID string, view json.RawMessage) error {
	var out apiEnvelope
	if err := c.postJSON(ctx, "views.open", openViewRequest{TriggerID: triggerID, View: view}, &out); err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("views.open failed: %s", out.Error)
	}
	return nil
}

type publishViewRequest struct {
	UserID string          `json:"user_id"`
	View   json.RawMessage `json:"view"`
}

// PublishView publishes a user's app-home view.
func (c *Client) PublishView(ctx context.Context, userID string, view json.RawMessage) error {
	var out apiEnvelope
	if err := c.postJSON(ctx, "views.publish", publishViewRequest{UserID: userID, View: view}, &out); err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("views.publish failed: %s", out.Error)
	}
	return nil
}

type userInfoResponse struct {
	apiEnvelope
	User struct {
		ID       string `json:"id"`
		RealName string `json:"real_name"`
	} `json:"user"`
}

// DisplayName resolves a user id to the user's real name.
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/users.info?user=%s", c.baseURL, url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	var out userInfoResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if !out.OK {
		return "", fmt.Errorf("users.info failed: %s", out.Error)
	}
	return out.User.RealName, nil
}

type oauthAccessResponse struct {
	apiEnvelope
	Team struct {
		ID string `json:"id"`
	} `json:"team"`
}

// ExchangeOAuthCode completes the install handshake and returns the
// workspace team id.
func (c *Client) ExchangeOAuthCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("redirect_uri", c.redirectURL)
	form.Set("code", code)

	endpoint := c.baseURL + "/oauth.v2.access"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out oauthAccessResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if !out.OK {
		return "", fmt.Errorf("oauth.v2.access failed: %s", out.Error)
	}
	return out.Team.ID, nil
}

// Dismiss posts a clear action to a pending form's response URL.
func (c *Client) Dismiss(ctx context.Context, responseURL string) error {
	responseURL = strings.TrimSpace(responseURL)
	if responseURL == "" {
		return errors.New("empty response url")
	}

	body := []byte(`{"response_action":"clear"}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("dismiss failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, method string, in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c == nil || c.httpc == nil {
		return errors.New("nil slack client")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(rb))
		if c.logger != nil {
			c.logger.Printf("[Slack] request failed url=%s status=%d body=%q", req.URL, resp.StatusCode, bodyStr)
		}
		return fmt.Errorf("slack request failed: status=%d body=%s", resp.StatusCode, bodyStr)
	}

	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}
