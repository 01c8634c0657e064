package slack_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/adiazny/slack-diary-lambda/internal/pkg/slack"
)

func TestMessage_Payload(t *testing.T) {
	tests := []struct {
		name string
		msg  slack.Message
		want string
	}{
		{
			name: "success with field",
			msg:  slack.Build("Success to write!", slack.Success, []slack.Field{{Title: "2024-03-05(Tue)", Value: "hello"}}),
			want: `{"attachments":[{"pretext":"Success to write!","color":"#36a64f","fields":[{"title":"2024-03-05(Tue)","value":"hello"}]}]}`,
		},
		{
			name: "fail",
			msg:  slack.Build("Failed to read.", slack.Fail, []slack.Field{{Title: "message", Value: "invalid_token"}}),
			want: `{"attachments":[{"pretext":"Failed to read.","color":"#D00000","fields":[{"title":"message","value":"invalid_token"}]}]}`,
		},
		{
			name: "info without fields",
			msg:  slack.Build("reminder", slack.Info, nil),
			want: `{"attachments":[{"pretext":"reminder","color":"#eeeeee","fields":[]}]}`,
		},
	}
	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.msg.Payload()
			if err != nil {
				t.Fatalf("Message.Payload() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("Message.Payload() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type mockClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (mc *mockClient) Do(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("error request is nil")
	}
	return mc.DoFunc(req)
}

func newMockClient(doFunc func(req *http.Request) (*http.Response, error)) *mockClient {
	return &mockClient{
		DoFunc: doFunc,
	}
}

func discardLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logrus.NewEntry(logger)
}

func TestWebhook_Post(t *testing.T) {
	msg := slack.Build("<!channel> Write Diary!:muscle:", slack.Info, []slack.Field{{Title: "2019-06-15(Sat)", Value: "old"}})

	tests := []struct {
		name    string
		status  int
		doErr   error
		wantErr bool
	}{
		{
			name:   "ok",
			status: http.StatusOK,
		},
		{
			name:    "non 200 response status",
			status:  http.StatusForbidden,
			wantErr: true,
		},
		{
			name:    "transport error",
			doErr:   errors.New("connection reset"),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			var gotReq *http.Request
			var gotForm url.Values

			webhook := &slack.Webhook{
				Log: discardLog(),
				URL: "https://hooks.slack.com/services/T/B/X",
				HTTP: newMockClient(func(req *http.Request) (*http.Response, error) {
					if tt.doErr != nil {
						return nil, tt.doErr
					}

					gotReq = req
					raw, _ := io.ReadAll(req.Body)
					gotForm, _ = url.ParseQuery(string(raw))

					return &http.Response{
						StatusCode: tt.status,
						Body:       io.NopCloser(strings.NewReader("ok")),
					}, nil
				}),
			}

			err := webhook.Post(context.Background(), msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Webhook.Post() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.doErr != nil {
				return
			}

			if gotReq.Method != http.MethodPost {
				t.Errorf("Webhook.Post() method = %v, want POST", gotReq.Method)
			}

			if ct := gotReq.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
				t.Errorf("Webhook.Post() content type = %v", ct)
			}

			var decoded map[string][]map[string]interface{}
			if err := json.Unmarshal([]byte(gotForm.Get("payload")), &decoded); err != nil {
				t.Fatalf("payload field is not JSON: %v", err)
			}

			if got := decoded["attachments"][0]["pretext"]; got != "<!channel> Write Diary!:muscle:" {
				t.Errorf("payload pretext = %v", got)
			}
		})
	}
}
