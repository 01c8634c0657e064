package slack

import (
	"encoding/json"
	"fmt"
)

type Color int

const (
	Info Color = iota
	Success
	Fail
)

var colorCodes = map[Color]string{
	Info:    "#eeeeee",
	Success: "#36a64f",
	Fail:    "#D00000",
}

// Code is the attachment color of c.
func (c Color) Code() string {
	return colorCodes[c]
}

type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Message is a single colored attachment.
type Message struct {
	Pretext string
	Color   Color
	Fields  []Field
}

type attachment struct {
	Pretext string  `json:"pretext"`
	Color   string  `json:"color"`
	Fields  []Field `json:"fields"`
}

type payload struct {
	Attachments []attachment `json:"attachments"`
}

func Build(pretext string, color Color, fields []Field) Message {
	if fields == nil {
		fields = []Field{}
	}

	return Message{
		Pretext: pretext,
		Color:   color,
		Fields:  fields,
	}
}

// Payload encodes the message as {"attachments":[{pretext, color, fields}]}.
func (m Message) Payload() ([]byte, error) {
	data, err := json.Marshal(payload{
		Attachments: []attachment{{
			Pretext: m.Pretext,
			Color:   m.Color.Code(),
			Fields:  m.Fields,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("error marshalling slack payload %w", err)
	}

	return data, nil
}
