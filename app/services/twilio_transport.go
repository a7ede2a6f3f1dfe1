package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/partyline/config"
	"github.com/amirphl/partyline/utils"
)

// TwilioTransport sends messages through the Twilio Programmable Messaging REST API
type TwilioTransport struct {
	baseURL    string
	accountSID string
	authToken  string
	timeout    time.Duration
	client     *http.Client
}

type twilioMessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type twilioErrorResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// NewTwilioTransport creates a transport from the messaging config
func NewTwilioTransport(cfg config.MessagingConfig) *TwilioTransport {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = utils.DefaultSendTimeout
	}
	return &TwilioTransport{
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		timeout:    timeout,
		client:     &http.Client{},
	}
}

func (t *TwilioTransport) messagesURL() string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.accountSID))
}

// Send posts one message. There are no retries; the caller decides what a failure means.
func (t *TwilioTransport) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", msg.From)
	form.Set("Body", msg.Body)
	if msg.StatusCallbackURL != "" {
		form.Set("StatusCallback", msg.StatusCallbackURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.messagesURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", &TransportError{Kind: TransportErrorNetwork, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &TransportError{Kind: TransportErrorTimeout, Message: fmt.Sprintf("no response within %s", t.timeout), Err: err}
		}
		return "", &TransportError{Kind: TransportErrorNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Kind: TransportErrorNetwork, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		te := &TransportError{Kind: TransportErrorRejected, StatusCode: resp.StatusCode}
		var er twilioErrorResponse
		if json.Unmarshal(body, &er) == nil && er.Message != "" {
			te.Message = er.Message
			if er.Code != 0 {
				te.ProviderCode = strconv.Itoa(er.Code)
			}
		} else {
			te.Message = fmt.Sprintf("body=%q", string(body))
		}
		return "", te
	}

	var mr twilioMessageResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return "", &TransportError{Kind: TransportErrorInvalidResponse, StatusCode: resp.StatusCode, Message: fmt.Sprintf("body=%q", string(body)), Err: err}
	}
	if mr.SID == "" {
		return "", &TransportError{Kind: TransportErrorInvalidResponse, StatusCode: resp.StatusCode, Message: fmt.Sprintf("missing sid in response body=%q", string(body))}
	}

	return mr.SID, nil
}
