package slack

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	contentTypeHeaderKey = "Content-Type"
	formContentType      = "application/x-www-form-urlencoded"

	payloadField = "payload"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook posts messages to a Slack incoming webhook.
type Webhook struct {
	Log  *logrus.Entry
	URL  string
	HTTP HTTPClient
}

// Post sends msg as a form with a single payload field.
func (w *Webhook) Post(ctx context.Context, msg Message) error {
	data, err := msg.Payload()
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set(payloadField, string(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error creating http request %w", err)
	}

	req.Header.Add(contentTypeHeaderKey, formContentType)

	resp, err := w.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("error performing http request %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("error status code is not 200 OK, got %d: %s", resp.StatusCode, body)
	}

	w.Log.WithField("fields", len(msg.Fields)).Info("posted message to webhook")

	return nil
}
