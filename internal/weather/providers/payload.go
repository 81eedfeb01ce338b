package providers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// ErrMalformedResponse is returned when a response body cannot be decoded or
// lacks a key the client relies on.
var ErrMalformedResponse = errors.New("malformed response")

var validate = validator.New()

// SMHI serves keys and measured values either as JSON strings or numbers.

type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	raw, err := scalarText(b)
	if err != nil {
		return err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %q", raw)
	}
	*n = flexInt(v)
	return nil
}

type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	raw, err := scalarText(b)
	if err != nil {
		return err
	}
	*s = flexString(raw)
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	raw, err := scalarText(b)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", raw)
	}
	*f = flexFloat(v)
	return nil
}

// scalarText returns the text of a JSON string or number literal.
func scalarText(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return "", errors.New("empty value")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	if b[0] == '-' || (b[0] >= '0' && b[0] <= '9') {
		return string(b), nil
	}
	return "", fmt.Errorf("expected string or number, got %s", b)
}

type parametersPayload struct {
	Resource []parameterResource `json:"resource" validate:"required,dive"`
}

type parameterResource struct {
	Key     *flexInt `json:"key" validate:"required"`
	Title   *string  `json:"title" validate:"required"`
	Summary *string  `json:"summary" validate:"required"`
}

type stationsPayload struct {
	Station []stationResource `json:"station" validate:"required,dive"`
}

type stationResource struct {
	Key    *flexString `json:"key" validate:"required"`
	Name   string      `json:"name"`
	Active *bool       `json:"active" validate:"required"`
}

type stationDataPayload struct {
	Station *stationInfo      `json:"station" validate:"required"`
	Value   []json.RawMessage `json:"value" validate:"required"`
}

type stationInfo struct {
	Name *string `json:"name" validate:"required"`
}

type observationValue struct {
	Value *flexFloat `json:"value" validate:"required"`
}

// decodePayload decodes r into dst and checks the keys dst marks as required.
func decodePayload(r io.Reader, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
