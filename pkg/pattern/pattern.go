// Package pattern applies a compiled named-capture line pattern to raw log
// lines, deriving the timestamp, log level and message fields.
package pattern

import (
	"regexp"
	"time"
)

// timestampGroup and syslogTimestampGroup are the two capture names a line
// pattern may use for the timestamp field. A pattern using the syslog
// variant is missing a year and must be disambiguated with a fallback year
// supplied by the caller (normally the file's mtime year).
const (
	timestampGroup       = "timestamp"
	syslogTimestampGroup = "timestamp_syslog"
	loglevelGroup        = "loglevel"
	messageGroup         = "message"
)

// LinePattern is an immutable, compiled representation of a line pattern:
// the raw pattern text, its compiled named-capture regexp, the timestamp
// layout and timezone used to interpret the timestamp capture, and whether
// that capture is a year-less syslog timestamp.
type LinePattern struct {
	Raw          string
	DatetimePat  string
	TimezoneName string
	SyslogTS     bool

	re  *regexp.Regexp
	loc *time.Location
}

// Compile builds a LinePattern from its YAML-configured fields. The
// capture name "timestamp_syslog" (rather than "timestamp") marks a
// year-less syslog timestamp; when present, Compile prefixes datetimePat
// with Go's year layout token so the fallback year supplied at Parse time
// slots in front of the captured string.
func Compile(linePattern, datetimePat, timezone string) (*LinePattern, error) {
	re, err := regexp.Compile(linePattern)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}

	syslogTS := false
	for _, name := range re.SubexpNames() {
		if name == syslogTimestampGroup {
			syslogTS = true
			break
		}
	}

	if syslogTS {
		datetimePat = "2006 " + datetimePat
	}

	return &LinePattern{
		Raw:          linePattern,
		DatetimePat:  datetimePat,
		TimezoneName: timezone,
		SyslogTS:     syslogTS,
		re:           re,
		loc:          loc,
	}, nil
}

// ParsedLine is the result of applying a LinePattern to a raw line.
// Timestamp == 0 signals the line could not be parsed; Loglevel is nil
// when the pattern has no loglevel capture or the line didn't populate it.
type ParsedLine struct {
	Timestamp uint64
	Loglevel  *string
	Message   string
}

// Parse applies pattern to line, using fallbackYear to disambiguate
// year-less syslog timestamps. It is a total function: it never fails,
// returning a ParsedLine with Timestamp == 0 on any parse failure.
func Parse(line string, p *LinePattern, fallbackYear string) ParsedLine {
	match := p.re.FindStringSubmatch(line)
	if match == nil {
		return ParsedLine{Timestamp: 0, Message: "Failed to parse: " + line}
	}

	groups := make(map[string]string, len(match))
	for i, name := range p.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		groups[name] = match[i]
	}

	parsed := ParsedLine{Message: groups[messageGroup]}

	if lvl, ok := groups[loglevelGroup]; ok && lvl != "" {
		parsed.Loglevel = &lvl
	}

	tsGroup := timestampGroup
	if p.SyslogTS {
		tsGroup = syslogTimestampGroup
	}

	raw, ok := groups[tsGroup]
	if !ok {
		return parsed
	}

	if p.SyslogTS {
		raw = fallbackYear + " " + raw
	}

	t, err := time.ParseInLocation(p.DatetimePat, raw, p.loc)
	if err != nil {
		return parsed
	}

	ms := t.UnixMilli()
	if ms < 0 {
		return parsed
	}
	parsed.Timestamp = uint64(ms)
	return parsed
}
