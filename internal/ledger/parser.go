package ledger

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

const (
	// DefaultDelimiter separates the sub-fields of a raw ledger line.
	DefaultDelimiter = "|"
	// FieldCount is the number of sub-fields a valid line carries.
	FieldCount = 5
)

var (
	transactionIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
	amountPattern        = regexp.MustCompile(`^[0-9]+\.[0-9]{2}$`)
	entityIDPattern      = regexp.MustCompile(`^ID[0-9]{14}$`)

	bareNumberPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	dateWordPattern   = regexp.MustCompile(`[A-Za-z]+`)
)

const (
	minDateYear = 1900
	maxDateYear = 2100
)

// dateWords are the only letter runs a date may carry.
var dateWords = map[string]bool{
	"jan": true, "january": true, "feb": true, "february": true, "mar": true, "march": true,
	"apr": true, "april": true, "may": true, "jun": true, "june": true, "jul": true, "july": true,
	"aug": true, "august": true, "sep": true, "sept": true, "september": true, "oct": true, "october": true,
	"nov": true, "november": true, "dec": true, "december": true,
	"mon": true, "monday": true, "tue": true, "tuesday": true, "wed": true, "wednesday": true,
	"thu": true, "thursday": true, "fri": true, "friday": true, "sat": true, "saturday": true,
	"sun": true, "sunday": true,
	"t": true, "z": true, "am": true, "pm": true, "st": true, "nd": true, "rd": true, "th": true,
	"utc": true, "gmt": true, "est": true, "edt": true, "cst": true, "cdt": true,
	"mst": true, "mdt": true, "pst": true, "pdt": true, "cet": true, "cest": true, "bst": true,
}

// parseDateIn is swapped in tests to exercise the panic guard.
var parseDateIn = func(s string, loc *time.Location) (time.Time, error) {
	return dateparse.ParseIn(s, loc)
}

// IsTransactionID reports whether s is a 64 character lowercase hex hash.
func IsTransactionID(s string) bool {
	return transactionIDPattern.MatchString(s)
}

// IsAmount reports whether s is a non-negative amount with exactly two decimals.
func IsAmount(s string) bool {
	return amountPattern.MatchString(s)
}

// IsEntityID reports whether s is "ID" followed by exactly 14 digits.
func IsEntityID(s string) bool {
	return entityIDPattern.MatchString(s)
}

// IsDate reports whether s parses as a calendar date in any supported format.
func IsDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ParseDate accepts ISO dates, US style slashed dates, month names and full
// timestamps, and returns the calendar date at UTC midnight.
// Ambiguous numeric dates are read month first. Bare numbers, trailing
// words and years outside 1900-2100 are rejected.
func ParseDate(s string) (parsed time.Time, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	if bareNumberPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("bare number %q is not a date", s)
	}
	for _, word := range dateWordPattern.FindAllString(s, -1) {
		if !dateWords[strings.ToLower(word)] {
			return time.Time{}, fmt.Errorf("unexpected text %q in date", word)
		}
	}
	// dateparse panics on a handful of pathological inputs; Parse must stay total.
	defer func() {
		if r := recover(); r != nil {
			parsed, err = time.Time{}, fmt.Errorf("unparseable date: %v", r)
		}
	}()
	t, err := parseDateIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() < minDateYear || t.Year() > maxDateYear {
		return time.Time{}, fmt.Errorf("year %d out of range", t.Year())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Parser turns raw delimited lines into records.
type Parser struct {
	delimiter string
}

// NewParser builds a parser splitting on delimiter (DefaultDelimiter when empty).
func NewParser(delimiter string) *Parser {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &Parser{delimiter: delimiter}
}

// Parse returns the normalized record for line, or InvalidRecord.
func (p *Parser) Parse(line string) Record {
	rec, err := p.Check(line)
	if err != nil {
		return InvalidRecord
	}
	return rec
}

// Check validates line and returns the record or a *MalformedRecordError.
func (p *Parser) Check(line string) (Record, error) {
	parts := strings.Split(line, p.delimiter)
	if len(parts) != FieldCount {
		return InvalidRecord, &MalformedRecordError{
			Field:  "line",
			Value:  line,
			Reason: fmt.Sprintf("want %d fields, got %d", FieldCount, len(parts)),
		}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	id, date, amount, sender, receiver := parts[0], parts[1], parts[2], parts[3], parts[4]

	if !IsTransactionID(id) {
		return InvalidRecord, &MalformedRecordError{Field: "transaction", Value: id, Reason: "not a 64 character lowercase hex hash"}
	}
	ts, err := ParseDate(date)
	if err != nil {
		return InvalidRecord, &MalformedRecordError{Field: "timestamp", Value: date, Reason: err.Error()}
	}
	if !IsAmount(amount) {
		return InvalidRecord, &MalformedRecordError{Field: "amount", Value: amount, Reason: "want digits with exactly two decimals"}
	}
	if !IsEntityID(sender) {
		return InvalidRecord, &MalformedRecordError{Field: "sender", Value: sender, Reason: "want ID followed by 14 digits"}
	}
	if !IsEntityID(receiver) {
		return InvalidRecord, &MalformedRecordError{Field: "receiver", Value: receiver, Reason: "want ID followed by 14 digits"}
	}
	if sender == receiver {
		return InvalidRecord, &MalformedRecordError{Field: "receiver", Value: receiver, Reason: "sender and receiver are the same entity"}
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return InvalidRecord, &MalformedRecordError{Field: "amount", Value: amount, Reason: err.Error()}
	}

	return Record{
		ID:        id,
		Timestamp: ts,
		Amount:    value,
		Sender:    sender,
		Receiver:  receiver,
	}, nil
}
