package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Creditor BalanceStatus = "get"
	Debtor   BalanceStatus = "pay"
	Settled  BalanceStatus = "settled"
)

type (
	BalanceStatus string

	Money struct {
		Cents int64
	}

	// Entry is one participant's cumulative spend on a trip.
	Entry struct {
		Name  string
		Spent Money
	}

	// Balance is spent minus the equal share, rounded to the cent.
	// Positive means the participant is owed money.
	Balance struct {
		Name   string
		Amount Money
	}

	// Transfer is a directed payment from a debtor to a creditor.
	Transfer struct {
		Payer    string
		Receiver string
		Amount   Money
	}
)

var (
	// ErrInvalidInput marks every rejected write: empty names, negative or
	// malformed amounts, duplicate participants.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientParticipants is returned when fewer than two
	// participants are offered for settlement.
	ErrInsufficientParticipants = errors.New("at least 2 participants are required to settle")

	ErrEmptyName     = fmt.Errorf("%w: empty participant name", ErrInvalidInput)
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrInvalidInput)
	ErrNameTooLong   = fmt.Errorf("%w: participant name too long (max %d characters)", ErrInvalidInput, MaxNameLength)

	// ErrAmountOverflow is returned when a running total would not fit in int64 cents.
	ErrAmountOverflow = fmt.Errorf("%w: amount too large", ErrInvalidInput)
)

// MaxNameLength bounds participant names, measured in bytes.
const MaxNameLength = 100

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NormalizeName trims surrounding whitespace and rejects empty names.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

func (e Entry) Validate() error {
	if _, err := NormalizeName(e.Name); err != nil {
		return err
	}
	if err := e.Spent.Validate(); err != nil {
		return fmt.Errorf("%w for %q", err, e.Name)
	}
	return nil
}

// Status classifies the balance as creditor, debtor or settled.
func (b Balance) Status() BalanceStatus {
	switch {
	case b.Amount.Cents > 0:
		return Creditor
	case b.Amount.Cents < 0:
		return Debtor
	default:
		return Settled
	}
}

func (t Transfer) String() string {
	return t.Payer + " -> " + t.Receiver + ": " + t.Amount.String()
}
