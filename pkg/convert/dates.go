package convert

import (
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/errors"
)

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
	constants.DateFormat,
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate parses the date formats found in DCAT feeds: ISO 8601 dates and
// timestamps, partial dates, day/month/year dates, and Unix timestamps in
// seconds or milliseconds.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch {
		case len(s) >= 13:
			return time.UnixMilli(n).UTC(), nil
		case len(s) >= 9:
			return time.Unix(n, 0).UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date " + strconv.Quote(s))
}

// FormatDate reformats a feed date to the local day/month/year convention.
func FormatDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(constants.DateFormat), nil
}

// isoDate turns a local day/month/year date back into YYYY-MM-DD.
func isoDate(local string) string {
	t, err := time.Parse(constants.DateFormat, strings.TrimSpace(local))
	if err != nil {
		return local
	}
	return t.Format("2006-01-02")
}
