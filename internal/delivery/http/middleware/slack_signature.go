package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"skill-board/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// Slack signs each request with v0=hex(hmac_sha256(secret, "v0:<ts>:<body>"))
// in X-Slack-Signature. Requests older than the tolerance are rejected to
// block replay.
const signatureVersion = "v0"

type SlackSignatureMiddleware struct {
	signingSecret string
	tolerance     time.Duration
	logger        *log.Logger
	now           func() time.Time
}

func NewSlackSignatureMiddleware(signingSecret string, logger *log.Logger) *SlackSignatureMiddleware {
	if logger == nil {
		logger = log.Default()
	}
	return &SlackSignatureMiddleware{
		signingSecret: signingSecret,
		tolerance:     5 * time.Minute,
		logger:        logger,
		now:           time.Now,
	}
}

func (m *SlackSignatureMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		ts := strings.TrimSpace(c.Get("X-Slack-Request-Timestamp"))
		sig := strings.TrimSpace(c.Get("X-Slack-Signature"))
		if ts == "" || sig == "" {
			return response.Error(c, fiber.StatusUnauthorized, response.MessageUnauthorized, nil)
		}

		if err := m.verify(ts, sig, c.Body()); err != nil {
			m.logger.Printf("signature verification failed: %v", err)
			return response.Error(c, fiber.StatusUnauthorized, response.MessageUnauthorized, nil)
		}

		return c.Next()
	}
}

func (m *SlackSignatureMiddleware) verify(ts string, sig string, body []byte) error {
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp: %w", err)
	}

	age := m.now().Sub(time.Unix(unix, 0))
	if age > m.tolerance || age < -m.tolerance {
		return fmt.Errorf("stale timestamp: age=%s", age)
	}

	mac := hmac.New(sha256.New, []byte(m.signingSecret))
	fmt.Fprintf(mac, "%s:%s:", signatureVersion, ts)
	mac.Write(body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
