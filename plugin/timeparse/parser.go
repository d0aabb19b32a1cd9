// Package timeparse turns free-text reminder messages such as
// "Buy milk at 18:30" or "Buy milk 28.07.2025 at 18:30" into a task
// description and a wall-clock instant.
package timeparse

import (
	"strings"
	"time"
)

const (
	// DateLayout is the explicit date form accepted before the delimiter.
	DateLayout = "02.01.2006"
	// ClockLayout is the 24-hour time-of-day form accepted after the delimiter.
	ClockLayout = "15:04"

	dateTokenLen = len("28.07.2025")
)

// DefaultDelimiters are the words that introduce the time of day (English,
// Russian, Ukrainian).
var DefaultDelimiters = []string{"at", "в", "о"}

// Result is a successfully parsed reminder message.
type Result struct {
	// Task is the text to deliver, trimmed.
	Task string
	// Instant is the fire time in the location of the now value given to Parse.
	Instant time.Time
	// ExplicitDate is true when the message named a DD.MM.YYYY date.
	ExplicitDate bool
}

// Parser splits reminder messages on a set of delimiter words.
// A Parser is immutable and safe for concurrent use.
type Parser struct {
	delimiters []string
}

// NewParser creates a parser recognising the given delimiter words.
// With no arguments DefaultDelimiters are used.
func NewParser(delimiters ...string) *Parser {
	if len(delimiters) == 0 {
		delimiters = DefaultDelimiters
	}
	padded := make([]string, 0, len(delimiters))
	for _, d := range delimiters {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		padded = append(padded, " "+d+" ")
	}
	return &Parser{delimiters: padded}
}

// Parse extracts the task and the fire instant from raw.
//
// The message is split at the last occurrence of any delimiter, so the task
// may itself contain a delimiter word. If the last word before the delimiter
// is a DD.MM.YYYY date the instant is exactly that date and time. Otherwise
// the time of day refers to today, rolled over to tomorrow when it is already
// past nowLocal. The result is expressed in nowLocal's location.
func (p *Parser) Parse(raw string, nowLocal time.Time) (*Result, error) {
	text := strings.TrimSpace(raw)

	head, clock, ok := p.split(text)
	if !ok {
		return nil, newParseError(NoDelimiter, raw, nil)
	}

	words := strings.Fields(head)
	last := words[len(words)-1]
	if isDateToken(last) {
		task := strings.Join(words[:len(words)-1], " ")
		if task == "" {
			return nil, newParseError(EmptyTask, raw, nil)
		}
		instant, err := time.ParseInLocation(DateLayout+" "+ClockLayout, last+" "+clock, nowLocal.Location())
		if err != nil {
			return nil, newParseError(BadDateTime, raw, err)
		}
		return &Result{Task: task, Instant: instant, ExplicitDate: true}, nil
	}

	tod, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return nil, newParseError(BadDateTime, raw, err)
	}
	return &Result{Task: head, Instant: NextOccurrence(nowLocal, tod.Hour(), tod.Minute())}, nil
}

// split cuts text at the rightmost delimiter and returns the trimmed parts.
func (p *Parser) split(text string) (head, tail string, ok bool) {
	at, width := -1, 0
	for _, d := range p.delimiters {
		if i := strings.LastIndex(text, d); i > at {
			at, width = i, len(d)
		}
	}
	if at < 0 {
		return "", "", false
	}

	head = strings.TrimSpace(text[:at])
	tail = strings.TrimSpace(text[at+width:])
	if head == "" || tail == "" {
		return "", "", false
	}
	return head, tail, true
}

// NextOccurrence returns today's hour:minute in now's location, or the same
// wall-clock time tomorrow when that moment is strictly before now.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	candidate := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if candidate.Before(now) {
		candidate = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return candidate
}

func isDateToken(word string) bool {
	return len(word) == dateTokenLen && strings.Contains(word, ".")
}
