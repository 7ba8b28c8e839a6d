package model

import (
	"fmt"
	"regexp"
	"strings"
)

var iso8601DurationDateRegexp = regexp.MustCompile(`^P(\d+Y)?(\d+M)?(\d+W)?(\d+D)?$`)
var iso8601DurationTimeRegexp = regexp.MustCompile(`^(\d+H)?(\d+M)?(\d+S)?$`)

func NewISO8601Duration(v string) (ISO8601Duration, error) {
	if v == "" {
		return ISO8601Duration(v), nil
	}

	s := strings.Split(v, "T")

	var valid bool
	if len(s) == 1 && len(s[0]) >= 3 { // e.g. P1D
		valid = iso8601DurationDateRegexp.MatchString(s[0])
	} else if len(s) == 2 {
		if len(s[0]) == 1 && s[0][0] == 'P' { // e.g. PT1S -> P
			valid = true
		} else { // e.g. P1DT1S -> P1D
			valid = iso8601DurationDateRegexp.MatchString(s[0])
		}

		if len(s[1]) >= 2 { // e.g. PT1S -> 1S
			valid = valid && iso8601DurationTimeRegexp.MatchString(s[1])
		} else {
			valid = false
		}
	}

	if !valid {
		return "", fmt.Errorf("failed to parse ISO 8601 duration %s", v)
	}

	return ISO8601Duration(v), nil
}

// ISO8601Duration is a duration in ISO 8601 format.
// The zero value has a duration of 0 seconds.
//
// see https://en.wikipedia.org/wiki/ISO_8601#Durations
type ISO8601Duration string

func (d ISO8601Duration) IsZero() bool {
	return d == ""
}

func (d ISO8601Duration) String() string {
	return string(d)
}
