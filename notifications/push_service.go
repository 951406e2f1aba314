package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	config "github.com/wavechat/wavechat-backend/configs"
)

// PushService talks to the push gateway that owns device tokens and platform
// delivery. This service never retries; the gateway does its own queueing.
type PushService struct {
	GatewayURL string
	APIKey     string
	client     *http.Client
}

var PushClient *PushService

func InitPushService() {
	gatewayURL := config.Config("PUSH_GATEWAY_URL")
	apiKey := config.Config("PUSH_GATEWAY_KEY")

	if gatewayURL == "" {
		log.Println("⚠️ Push service not configured. Missing PUSH_GATEWAY_URL; push notifications disabled.")
		PushClient = nil
		return
	}

	PushClient = &PushService{
		GatewayURL: gatewayURL,
		APIKey:     apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	log.Println("✅ Push service initialized successfully.")
}

type pushPayload struct {
	UserID uuid.UUID         `json:"user_id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

func (s *PushService) SendPush(userID uuid.UUID, title, body string, data map[string]string) error {
	payload := pushPayload{UserID: userID, Title: title, Body: body, Data: data}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.GatewayURL+"/v1/push", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("X-Api-Key", s.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
