package departures

// clockOffset is the position of "HH:MM:SS" inside "YYYY-MM-DDTHH:MM:SS".
const clockOffset = 11

// SecondsSinceMidnight reads "HH:MM:SS" by fixed position. Separators and
// ranges are not validated; malformed input yields a meaningless number.
func SecondsSinceMidnight(clock string) int {
	return twoDigitField(clock, 0)*3600 + twoDigitField(clock, 3)*60 + twoDigitField(clock, 6)
}

// MinutesUntil returns whole minutes from the query instant, aged by
// ageSeconds, to target. Both date-times are "YYYY-MM-DDTHH:MM:SS"; only the
// clock part is used. The result truncates toward zero and is not clamped.
func MinutesUntil(queryDateTime string, ageSeconds int, targetDateTime string) int {
	now := SecondsSinceMidnight(clockPart(queryDateTime)) + ageSeconds
	return (SecondsSinceMidnight(clockPart(targetDateTime)) - now) / 60
}

// TwoDigits renders minutes as two characters using (v/10)%10 and v%10.
// Values of 100 or more wrap and negative values render as non-digit bytes;
// the board has always shown it this way.
func TwoDigits(v int) string {
	return string([]byte{byte('0' + (v/10)%10), byte('0' + v%10)})
}

func clockPart(dateTime string) string {
	if len(dateTime) <= clockOffset {
		return ""
	}
	return dateTime[clockOffset:]
}

func twoDigitField(s string, at int) int {
	return digitAt(s, at)*10 + digitAt(s, at+1)
}

// digitAt returns the byte at i minus '0', or 0 past the end of s.
func digitAt(s string, i int) int {
	if i >= len(s) {
		return 0
	}
	return int(s[i]) - '0'
}
