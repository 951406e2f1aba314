package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	config "github.com/wavechat/wavechat-backend/configs"
	"github.com/wavechat/wavechat-backend/models"
)

// InboxService mirrors delivered messages into the notification inbox owned
// by the notifications backend, so the recipient's bell feed stays in sync.
type InboxService struct {
	GatewayURL string
	APIKey     string
	client     *http.Client
}

var InboxClient *InboxService

func InitInboxService() {
	gatewayURL := config.Config("PUSH_GATEWAY_URL")
	apiKey := config.Config("PUSH_GATEWAY_KEY")

	if gatewayURL == "" {
		log.Println("⚠️ Inbox service not configured. Missing PUSH_GATEWAY_URL; inbox mirroring disabled.")
		InboxClient = nil
		return
	}

	InboxClient = &InboxService{
		GatewayURL: gatewayURL,
		APIKey:     apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	log.Println("✅ Inbox service initialized successfully.")
}

func (s *InboxService) SaveItem(item models.InboxNotification) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.GatewayURL+"/v1/inbox", bytes.NewReader(raw))
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
		return fmt.Errorf("inbox gateway returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
