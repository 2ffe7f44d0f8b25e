package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type ActionType string

const ActionTypeRedirect ActionType = "REDIRECT"

// RedirectMethod is how the browser must be sent to the partner.
type RedirectMethod string

const (
	RedirectMethodGet  RedirectMethod = "GET"
	RedirectMethodPost RedirectMethod = "POST"
)

// RedirectAction describes a browser-level redirect required to complete an
// externally-hosted authentication step (e.g. a 3-D Secure challenge).
// It is produced once by payment processing and consumed exactly once by the
// redirect bridge.
type RedirectAction struct {
	Type      ActionType     `json:"actionType"`
	PaymentID string         `json:"paymentId"`
	URL       string         `json:"redirectUrl"`
	Method    RedirectMethod `json:"redirectMethod"`

	// Data holds the form fields for POST redirects. Field order is
	// preserved, some partners verify signatures over the submitted order.
	Data FormData `json:"data,omitempty"`
}

// Validate checks the action is executable. Data must be non-empty exactly
// when the method is POST.
func (a *RedirectAction) Validate() error {
	if a.Type != ActionTypeRedirect {
		return fmt.Errorf("%w: unexpected action type '%s'", ErrValidation, a.Type)
	}
	if a.URL == "" {
		return fmt.Errorf("%w: redirect url is empty", ErrValidation)
	}
	switch a.Method {
	case RedirectMethodGet:
		if len(a.Data) > 0 {
			return fmt.Errorf("%w: GET redirect must not carry form data", ErrValidation)
		}
	case RedirectMethodPost:
		if len(a.Data) == 0 {
			return fmt.Errorf("%w: POST redirect requires form data", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown redirect method '%s'", ErrValidation, a.Method)
	}
	return nil
}

// FormField is a single name/value pair of a POST redirect form.
type FormField struct {
	Name  string
	Value string
}

// FormData is an ordered string-to-string mapping. On the wire it is a plain
// JSON object, but unlike a Go map it keeps the key order of the document it
// was decoded from.
type FormData []FormField

func (d FormData) Get(name string) (string, bool) {
	for _, f := range d {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (d FormData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *FormData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("form data must be a JSON object, got %v", tok)
	}

	var fields FormData
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected form data key %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("form data value for '%s' must be a string: %w", key, err)
		}
		fields = append(fields, FormField{Name: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = fields
	return nil
}
