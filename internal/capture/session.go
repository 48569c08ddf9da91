package capture

import "regexp"

// UnknownSessionID is reported when an address carries no stream-<digits>_
// segment.
const UnknownSessionID = "unknownid"

var sessionPattern = regexp.MustCompile(`stream-(\d+)_`)

// SessionID extracts the numeric stream session from an address. It is used
// for log correlation only.
func SessionID(address string) string {
	if m := sessionPattern.FindStringSubmatch(address); len(m) == 2 {
		return m[1]
	}
	return UnknownSessionID
}
