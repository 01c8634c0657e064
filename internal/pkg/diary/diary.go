package diary

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/sirupsen/logrus"

	"github.com/adiazny/slack-diary-lambda/internal/pkg/calendar"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/command"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/config"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/reminder"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/slack"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/store"
)

const (
	writeSucceeded = "Success to write!"
	writeFailed    = "Failed to write."
	readSucceeded  = "Success to read!"
	readFailed     = "Failed to read."
	remindPretext  = "<!channel> Write Diary!:muscle:"

	snsSubject = "Diary reminder"

	textField = "text"

	contentTypeHeaderKey = "Content-Type"
	jsonContentType      = "application/json"
)

type Config struct {
	Auth      command.Authorizer
	YearsBack int
	Location  *time.Location
	TopicARN  string
}

// Notifier delivers a message to the chat channel.
type Notifier interface {
	Post(ctx context.Context, msg slack.Message) error
}

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Service handles the write and read slash commands and the reminder job.
type Service struct {
	Log      *logrus.Entry
	Config   Config
	Store    store.Store
	Notifier Notifier
	SNS      SNSAPI
}

// New wires a Service to the bucket, webhook and topic named in envVars.
func New(log *logrus.Entry, envVars *config.EnvironmentVariables, awsConfig aws.Config) (*Service, error) {
	loc, err := envVars.Location()
	if err != nil {
		return nil, err
	}

	svc := &Service{
		Log: log,
		Config: Config{
			Auth: command.Authorizer{
				Token:     envVars.SlashCommandToken,
				ChannelID: envVars.ValidChannelID,
				UserID:    envVars.ValidUserID,
			},
			YearsBack: envVars.RemindYearsBack,
			Location:  loc,
			TopicARN:  envVars.TopicARN,
		},
		Store: &store.Bucket{
			Log:  log.WithField("bucket", envVars.BucketName),
			Name: envVars.BucketName,
			S3:   s3.NewFromConfig(awsConfig),
		},
	}

	if envVars.IncomingWebhookURL != "" {
		svc.Notifier = &slack.Webhook{
			Log:  log,
			URL:  envVars.IncomingWebhookURL,
			HTTP: &http.Client{Timeout: envVars.HTTPTimeout()},
		}
	}

	if envVars.TopicARN != "" {
		svc.SNS = sns.NewFromConfig(awsConfig)
	}

	return svc, nil
}

func (s *Service) parser() command.Parser {
	return command.Parser{Auth: s.Config.Auth}
}

// Write stores the text of a write command under its date.
func (s *Service) Write(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	raw, err := requestBody(req)
	if err != nil {
		return s.fail(writeFailed, err, "")
	}

	cmd, err := s.parser().ParseBody(raw)
	if err != nil {
		return s.fail(writeFailed, err, rawBodyText(raw))
	}

	err = s.Store.Put(ctx, cmd.Date.Key(), cmd.Text)
	if err != nil {
		return s.fail(writeFailed, err, rawBodyText(raw))
	}

	s.Log.WithField("date", cmd.Date.String()).Info("wrote entry")

	return s.respond(slack.Build(writeSucceeded, slack.Success, []slack.Field{
		{Title: cmd.Date.Display(), Value: cmd.Text},
	}))
}

// Read returns the entry for the date of a read command.
func (s *Service) Read(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := queryParams(req)

	cmd, err := s.parser().ParseQuery(params)
	if err != nil {
		return s.fail(readFailed, err, params[textField])
	}

	body, err := s.Store.Get(ctx, cmd.Date.Key())
	if err != nil {
		return s.fail(readFailed, err, params[textField])
	}

	s.Log.WithField("date", cmd.Date.String()).Info("read entry")

	return s.respond(slack.Build(readSucceeded, slack.Success, []slack.Field{
		{Title: cmd.Date.Display(), Value: body},
	}))
}

// Remind is the scheduled entry point. It reminds for today in the
// configured time zone.
func (s *Service) Remind(ctx context.Context, _ events.CloudWatchEvent) error {
	loc := s.Config.Location
	if loc == nil {
		loc = time.UTC
	}

	return s.RemindOn(ctx, calendar.Today(loc))
}

// RemindOn posts the entries written on today's month and day in previous
// years. Nothing is posted if the scan fails.
func (s *Service) RemindOn(ctx context.Context, today calendar.Date) error {
	if s.Notifier == nil {
		return config.ErrMissingWebhookURL
	}

	scanner := &reminder.Scanner{
		Store:     s.Store,
		YearsBack: s.Config.YearsBack,
	}

	entries, err := scanner.Scan(ctx, today)
	if err != nil {
		s.Log.WithError(err).Error("reminder scan failed")
		return err
	}

	fields := make([]slack.Field, 0, len(entries))
	for _, entry := range entries {
		fields = append(fields, slack.Field{Title: entry.Date.Display(), Value: entry.Body})
	}

	err = s.Notifier.Post(ctx, slack.Build(remindPretext, slack.Info, fields))
	if err != nil {
		s.Log.WithError(err).Error("posting reminder failed")
		return fmt.Errorf("error posting reminder %w", err)
	}

	s.Log.WithFields(logrus.Fields{
		"today":   today.String(),
		"entries": len(entries),
	}).Info("sent reminder")

	return s.PublishSNS(ctx, today, entries)
}

// PublishSNS sends a plain text digest of the reminder to the configured
// topic. It does nothing without a topic or without entries.
func (s *Service) PublishSNS(ctx context.Context, today calendar.Date, entries []calendar.Entry) error {
	if s.SNS == nil || s.Config.TopicARN == "" || len(entries) == 0 {
		return nil
	}

	var b strings.Builder

	fmt.Fprintf(&b, "On this day, %s\n", today.Display())

	for _, entry := range entries {
		fmt.Fprintf(&b, "\n%s\n%s\n", entry.Date.Display(), entry.Body)
	}

	topicMsg := b.String()

	input := &sns.PublishInput{
		Message:  &topicMsg,
		Subject:  aws.String(snsSubject),
		TopicArn: &s.Config.TopicARN,
	}

	_, err := s.SNS.Publish(ctx, input)
	if err != nil {
		s.Log.WithError(err).Error()
		return fmt.Errorf("error publishing to AWS SNS topic %s: %w", s.Config.TopicARN, err)
	}

	return nil
}

// fail turns err into a fail attachment that echoes the raw text field.
func (s *Service) fail(pretext string, err error, rawText string) (events.APIGatewayProxyResponse, error) {
	s.Log.WithError(err).WithField("params", rawText).Warn(pretext)

	return s.respond(slack.Build(pretext, slack.Fail, []slack.Field{
		{Title: "message", Value: err.Error()},
		{Title: "params", Value: rawText},
	}))
}

func (s *Service) respond(msg slack.Message) (events.APIGatewayProxyResponse, error) {
	body, err := msg.Payload()
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, err
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{contentTypeHeaderKey: jsonContentType},
		Body:       string(body),
	}, nil
}

func requestBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}

	raw, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, command.ErrInvalidEvent
	}

	return raw, nil
}

// rawBodyText is the text field of a body that may not have parsed.
func rawBodyText(raw []byte) string {
	values, _ := url.ParseQuery(string(raw))
	return values.Get(textField)
}

// queryParams prefers the single value parameters and falls back to the
// first of each multi value parameter.
func queryParams(req events.APIGatewayProxyRequest) map[string]string {
	if req.QueryStringParameters != nil || len(req.MultiValueQueryStringParameters) == 0 {
		return req.QueryStringParameters
	}

	params := make(map[string]string, len(req.MultiValueQueryStringParameters))

	for k, v := range req.MultiValueQueryStringParameters {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	return params
}
