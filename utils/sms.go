package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/valyala/fasthttp"
)

// SMSServiceInterface is the SMS channel collaborator. Send returns the
// provider message id on success.
type SMSServiceInterface interface {
	Send(to, message string) (string, error)
}

// TelnyxSMS sends SMS through the Telnyx v2 messages API.
type TelnyxSMS struct {
	apiKey             string
	phoneNumber        string
	messagingProfileID string
	baseURL            string
	client             *fasthttp.Client
	logger             *log.Logger
}

func NewTelnyxSMS(apiKey, phoneNumber, messagingProfileID string, logger *log.Logger) *TelnyxSMS {
	return &TelnyxSMS{
		apiKey:             apiKey,
		phoneNumber:        phoneNumber,
		messagingProfileID: messagingProfileID,
		baseURL:            "https://api.telnyx.com/v2",
		client: &fasthttp.Client{
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type telnyxSendRequest struct {
	From               string `json:"from"`
	To                 string `json:"to"`
	Text               string `json:"text"`
	MessagingProfileID string `json:"messaging_profile_id,omitempty"`
}

type telnyxSendResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Errors []struct {
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (s *TelnyxSMS) Send(to, message string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("SMS service not configured")
	}

	body, err := json.Marshal(telnyxSendRequest{
		From:               s.phoneNumber,
		To:                 to,
		Text:               message,
		MessagingProfileID: s.messagingProfileID,
	})
	if err != nil {
		return "", err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.baseURL + "/messages")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.SetBody(body)

	if err := s.client.Do(req, resp); err != nil {
		s.logger.Printf("SMS send to %s failed: %v", to, err)
		return "", fmt.Errorf("failed to send SMS: %w", err)
	}

	var parsed telnyxSendResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("invalid SMS provider response: %w", err)
	}

	if resp.StatusCode() >= 300 {
		detail := "SMS send failed"
		if len(parsed.Errors) > 0 {
			detail = parsed.Errors[0].Detail
		}
		s.logger.Printf("SMS send to %s rejected: %s", to, detail)
		return "", fmt.Errorf("%s", detail)
	}

	s.logger.Printf("SMS sent to %s: %s", to, parsed.Data.ID)
	return parsed.Data.ID, nil
}

var _ SMSServiceInterface = (*TelnyxSMS)(nil)
