package parser

import (
	"regexp"
	"strings"
	"time"
)

// RawUnit is one candidate transaction extracted from statement text.
// Credit-card statements yield one unit per line; chequing statements yield
// units assembled from a line plus the surrounding date context.
type RawUnit struct {
	Text          string    // candidate transaction body
	Line          int       // 0-based index into the statement's lines
	Date          time.Time // context date for chequing units, zero otherwise
	DateConfident bool      // false when Date came from the default-date fallback
	Amounts       []string  // amount tokens; for chequing units the last is the running balance
	PrevBalance   string    // running balance preceding this unit, "" when unknown
	Negative      bool      // the statement printed an explicit minus against the amount
}

// skipMarkers are literal substrings of header/footer lines that never
// describe a transaction. Matched case-insensitively against whole lines.
var skipMarkers = []string{
	"BALANCE FORWARD",
	"OPENING BALANCE",
	"CLOSING BALANCE",
	"ACCOUNT SUMMARY",
	"STATEMENT PERIOD",
	"PAGE ",
	"CONTINUED ON",
	"DATE DESCRIPTION",
	"TRANS POST",
	"WITHDRAWALS ($)",
	"DEPOSITS ($)",
	"TOTAL ",
}

var (
	// "Jul 4" or "Jul 4, 2025", alone on a line: a date-context marker.
	bareDatePattern = regexp.MustCompile(`^[A-Za-z]{3}\.?\s*\d{1,2}(?:,\s*\d{4})?$`)
	// The same shape at the start of a line that carries a transaction body.
	leadingDatePattern = regexp.MustCompile(`^([A-Za-z]{3}\.?\s*\d{1,2}(?:,\s*\d{4})?)\s*`)
)

// Tokenize splits statement text into candidate transaction units using the
// layout rules for the detected profile. ref supplies the reference time for
// the chequing default-date fallback. Single pass, order preserved.
func Tokenize(text string, profile Profile, ref time.Time) []RawUnit {
	lines := strings.Split(text, "\n")

	if profile.AccountType == AccountCredit {
		return tokenizeCredit(lines)
	}
	return tokenizeChecking(lines, ref)
}

func tokenizeCredit(lines []string) []RawUnit {
	var units []RawUnit
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || isSkipLine(line) {
			continue
		}
		units = append(units, RawUnit{Text: line, Line: i, DateConfident: true})
	}
	return units
}

// scanState is the fold accumulator for chequing statements: the current
// date context plus the most recently seen running balance.
type scanState struct {
	date     time.Time
	dateSeen bool
	prevBal  string
}

func tokenizeChecking(lines []string, ref time.Time) []RawUnit {
	var units []RawUnit
	st := scanState{}
	for i, line := range lines {
		var unit *RawUnit
		st, unit = stepChecking(st, strings.TrimSpace(line), i, ref)
		if unit != nil {
			units = append(units, *unit)
		}
	}
	return units
}

// stepChecking advances the chequing scan by one line. It is a pure
// (state, line) -> (state', unit?) transition so the date-context carry-over
// can be tested in isolation.
func stepChecking(st scanState, line string, lineNo int, ref time.Time) (scanState, *RawUnit) {
	if line == "" {
		return st, nil
	}

	if isSkipLine(line) {
		// Balance-carrying header lines still seed the running balance so
		// the delta heuristic has a starting point.
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "BALANCE FORWARD") || strings.Contains(upper, "OPENING BALANCE") {
			if tokens, _, trailing := trailingAmounts(line); trailing && len(tokens) > 0 {
				st.prevBal = tokens[len(tokens)-1]
			}
		}
		return st, nil
	}

	// A bare date line updates the context and yields no unit.
	if bareDatePattern.MatchString(line) {
		if d, err := ParseDate(line, ref.Year()); err == nil {
			st.date = d
			st.dateSeen = true
		}
		return st, nil
	}

	body := line
	leadingDate := false
	if m := leadingDatePattern.FindStringSubmatch(line); m != nil {
		if d, err := ParseDate(strings.TrimSpace(m[1]), ref.Year()); err == nil {
			st.date = d
			st.dateSeen = true
			leadingDate = true
			body = line[len(m[0]):]
		}
	}

	tokens, descEnd, trailing := trailingAmounts(body)
	if !trailing {
		return st, nil
	}
	// A contextual unit needs the full amount+balance pair; a line that
	// opens with its own date is trusted with a single amount (RBC prints
	// deposits without the balance column).
	if len(tokens) < 2 && !leadingDate {
		return st, nil
	}

	date := st.date
	confident := st.dateSeen
	if !st.dateSeen {
		date = defaultDate(ref)
	}

	unit := &RawUnit{
		Text:          strings.TrimSpace(body[:descEnd]),
		Line:          lineNo,
		Date:          date,
		DateConfident: confident,
		Amounts:       tokens,
		PrevBalance:   st.prevBal,
		Negative:      strings.HasSuffix(strings.TrimSpace(body), "-"),
	}

	if len(tokens) >= 2 {
		st.prevBal = tokens[len(tokens)-1]
	}
	return st, unit
}

func isSkipLine(line string) bool {
	upper := strings.ToUpper(line)
	for _, marker := range skipMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
