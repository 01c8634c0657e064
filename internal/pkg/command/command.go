package command

import (
	"crypto/subtle"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/adiazny/slack-diary-lambda/internal/pkg/calendar"
)

const (
	fieldToken     = "token"
	fieldChannelID = "channel_id"
	fieldUserID    = "user_id"
	fieldText      = "text"
)

var (
	ErrInvalidEvent   = errors.New("invalid_event")
	ErrInvalidToken   = errors.New("invalid_token")
	ErrInvalidChannel = errors.New("invalid_channel")
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidMessage = errors.New("invalid_message")
)

var messageRegexp = regexp.MustCompile(`(?s)^(` + calendar.DatePattern + `)(.*)$`)

type Credentials struct {
	Token     string
	ChannelID string
	UserID    string
}

// Command is a validated slash command: who sent it, the day it refers to
// and the diary text that followed the date, if any.
type Command struct {
	Credentials Credentials
	Date        calendar.Date
	Text        string
}

// Fields is the fixed set of slash command fields the diary reads. Other
// fields posted by Slack are ignored.
type Fields struct {
	Token     string
	ChannelID string
	UserID    string
	Text      string
}

func (f Fields) credentials() Credentials {
	return Credentials{
		Token:     f.Token,
		ChannelID: f.ChannelID,
		UserID:    f.UserID,
	}
}

// DecodeBody decodes a URL-encoded slash command body.
func DecodeBody(raw []byte) (Fields, error) {
	if len(raw) == 0 {
		return Fields{}, ErrInvalidEvent
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return Fields{}, ErrInvalidEvent
	}

	return Fields{
		Token:     values.Get(fieldToken),
		ChannelID: values.Get(fieldChannelID),
		UserID:    values.Get(fieldUserID),
		Text:      values.Get(fieldText),
	}, nil
}

// DecodeQuery reads the slash command fields from query string parameters.
func DecodeQuery(params map[string]string) (Fields, error) {
	if params == nil {
		return Fields{}, ErrInvalidEvent
	}

	return Fields{
		Token:     params[fieldToken],
		ChannelID: params[fieldChannelID],
		UserID:    params[fieldUserID],
		Text:      params[fieldText],
	}, nil
}

// Authorizer holds the only token, channel and user allowed to use the diary.
type Authorizer struct {
	Token     string
	ChannelID string
	UserID    string
}

// Validate checks the token, then the channel, then the user, and reports
// the first mismatch.
func (a Authorizer) Validate(creds Credentials) error {
	if !equal(creds.Token, a.Token) {
		return ErrInvalidToken
	}

	if !equal(creds.ChannelID, a.ChannelID) {
		return ErrInvalidChannel
	}

	if !equal(creds.UserID, a.UserID) {
		return ErrInvalidUser
	}

	return nil
}

func equal(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

type Parser struct {
	Auth Authorizer
}

// ParseBody parses a write command: a URL-encoded body whose text starts
// with a date followed by the diary text.
func (p Parser) ParseBody(raw []byte) (Command, error) {
	fields, err := DecodeBody(raw)
	if err != nil {
		return Command{}, err
	}

	creds := fields.credentials()

	if err := p.Auth.Validate(creds); err != nil {
		return Command{}, err
	}

	m := messageRegexp.FindStringSubmatch(fields.Text)
	if m == nil {
		return Command{}, ErrInvalidMessage
	}

	date, err := calendar.ParseDate(m[1])
	if err != nil {
		return Command{}, ErrInvalidMessage
	}

	return Command{
		Credentials: creds,
		Date:        date,
		Text:        strings.TrimSpace(m[2]),
	}, nil
}

// ParseQuery parses a read command whose text is a bare date.
func (p Parser) ParseQuery(params map[string]string) (Command, error) {
	fields, err := DecodeQuery(params)
	if err != nil {
		return Command{}, err
	}

	creds := fields.credentials()

	if err := p.Auth.Validate(creds); err != nil {
		return Command{}, err
	}

	date, err := calendar.ParseDate(strings.TrimSpace(fields.Text))
	if err != nil {
		return Command{}, ErrInvalidMessage
	}

	return Command{
		Credentials: creds,
		Date:        date,
	}, nil
}
