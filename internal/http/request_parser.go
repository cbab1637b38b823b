package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"tripsplit/internal/core"
)

const maxBodyBytes = 64 << 10

type createTripRequest struct {
	Name string `json:"name"`
}

// expenseRequest accepts the amount as a JSON string ("12,34") or a plain
// decimal number (12.34). Exponent notation is rejected.
type expenseRequest struct {
	Name   string          `json:"name"`
	Amount json.RawMessage `json:"amount"`
}

// isForm reports whether the body is URL-encoded form data.
func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded"
}

// decodeJSON decodes an optional JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %v", errMalformedRequest, err)
	}
	return nil
}

func parseCreateTrip(w http.ResponseWriter, r *http.Request) (string, error) {
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return "", fmt.Errorf("%w: %v", errMalformedRequest, err)
		}
		return sanitizeInput(r.Form.Get("name")), nil
	}
	var req createTripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	return sanitizeInput(req.Name), nil
}

// parseExpense extracts the participant name and amount from a form or JSON body.
func parseExpense(w http.ResponseWriter, r *http.Request) (string, core.Money, error) {
	var name, amount string
	if isForm(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return "", core.Money{}, fmt.Errorf("%w: %v", errMalformedRequest, err)
		}
		name, amount = r.Form.Get("name"), r.Form.Get("amount")
	} else {
		var req expenseRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return "", core.Money{}, err
		}
		name = req.Name
		var err error
		if amount, err = jsonAmount(req.Amount); err != nil {
			return "", core.Money{}, err
		}
	}

	m, err := core.ParseMoney(amount)
	if err != nil {
		return "", core.Money{}, err
	}
	return sanitizeInput(name), m, nil
}

// jsonAmount returns the decimal text of a JSON string or number amount.
func jsonAmount(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: amount: %v", errMalformedRequest, err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: amount must be a string or number", errMalformedRequest)
	}
	if strings.ContainsAny(n.String(), "eE") {
		return "", fmt.Errorf("%w: exponent notation is not supported, use a plain decimal such as 12.34", core.ErrInvalidAmount)
	}
	return n.String(), nil
}

// sanitizeInput trims whitespace and drops control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
