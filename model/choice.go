package model

import (
	"bytes"
	"encoding/json"
)

type ChoiceType string

const (
	ChoiceSingleSelect ChoiceType = "single_select"
	ChoiceMultiSelect  ChoiceType = "multi_select"
	ChoiceConfirmation ChoiceType = "confirmation"
	ChoiceMenu         ChoiceType = "menu"
)

// Choice is one selectable option rendered as a button by the UI
type Choice struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Value       string `json:"value"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

const (
	DefaultInputPlaceholder = "Type your response..."
	DefaultInputHint        = "Or type your own response"
)

// FormattedResponse is the structured-choice envelope sent to the UI
type FormattedResponse struct {
	Text             string     `json:"text"`
	HasChoices       bool       `json:"has_choices"`
	ChoiceType       ChoiceType `json:"choice_type"`
	Choices          []Choice   `json:"choices"`
	AllowFreeInput   bool       `json:"allow_free_input"`
	InputPlaceholder string     `json:"input_placeholder"`
	InputHint        string     `json:"input_hint"`
}

// JSON encodes the envelope without HTML escaping so emoji and markup survive
func (f FormattedResponse) JSON() (string, error) {
	if f.Choices == nil {
		f.Choices = []Choice{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
