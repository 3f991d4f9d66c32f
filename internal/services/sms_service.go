package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// SMSGateway sends a text message to a phone number. The billing engine only
// needs the delivery outcome; retries and delivery tracking belong to the
// provider.
type SMSGateway interface {
	Send(ctx context.Context, phone, message string) error
}

type httpSMSGateway struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSMSGateway creates a gateway that POSTs messages to an SMS provider
// endpoint as JSON.
func NewHTTPSMSGateway(apiURL, apiKey string) SMSGateway {
	return &httpSMSGateway{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (g *httpSMSGateway) Send(ctx context.Context, phone, message string) error {
	payload := map[string]string{
		"to":      phone,
		"message": message,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal SMS payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SMS provider returned status %d", resp.StatusCode)
	}

	return nil
}

type logSMSGateway struct{}

// NewLogSMSGateway returns a gateway that only logs messages. Used when no
// SMS provider is configured.
func NewLogSMSGateway() SMSGateway {
	return &logSMSGateway{}
}

func (g *logSMSGateway) Send(ctx context.Context, phone, message string) error {
	log.Printf("[SMS] To=%s, Message=%s", phone, message)
	return nil
}
