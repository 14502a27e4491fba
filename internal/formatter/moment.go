package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayout is used for {{CDATE:}} and {{NOW:}} with an empty format.
const DefaultDateLayout = "YYYY-MM-DDTHH:mm:ssZ"

// momentTokens lists the supported date tokens, longest first within each
// family so that "MMMM" is never read as "MM" twice.
var momentTokens = []string{
	"YYYY", "YY",
	"Q",
	"MMMM", "MMM", "MM", "M",
	"DDDD", "DDD", "DD", "Do", "D",
	"dddd", "ddd", "dd", "d",
	"HH", "H", "hh", "h", "kk", "k",
	"mm", "m",
	"ss", "s",
	"SSS", "SS", "S",
	"A", "a",
	"ZZ", "Z",
	"X", "x",
}

// FormatDate renders t using the moment.js style date mini-language that
// vault users already write in their templates, e.g. "YYYY-MM-DD hh:mm A".
// Text inside square brackets is copied literally and any character that is
// not a token is copied as-is.
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}

	var b strings.Builder
	for i := 0; i < len(layout); {
		if layout[i] == '[' {
			if end := strings.IndexByte(layout[i+1:], ']'); end >= 0 {
				b.WriteString(layout[i+1 : i+1+end])
				i += end + 2
				continue
			}
		}

		tok := matchToken(layout[i:])
		if tok == "" {
			b.WriteByte(layout[i])
			i++
			continue
		}
		b.WriteString(renderToken(t, tok))
		i += len(tok)
	}
	return b.String()
}

func matchToken(s string) string {
	for _, tok := range momentTokens {
		if strings.HasPrefix(s, tok) {
			return tok
		}
	}
	return ""
}

func renderToken(t time.Time, tok string) string {
	switch tok {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "Q":
		return strconv.Itoa((int(t.Month())-1)/3 + 1)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return fmt.Sprintf("%03d", t.YearDay())
	case "DDD":
		return strconv.Itoa(t.YearDay())
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "Do":
		return ordinal(t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "dddd":
		return t.Weekday().String()
	case "ddd":
		return t.Weekday().String()[:3]
	case "dd":
		return t.Weekday().String()[:2]
	case "d":
		return strconv.Itoa(int(t.Weekday()))
	case "HH":
		return fmt.Sprintf("%02d", t.Hour())
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return fmt.Sprintf("%02d", hour12(t.Hour()))
	case "h":
		return strconv.Itoa(hour12(t.Hour()))
	case "kk":
		return fmt.Sprintf("%02d", hour24(t.Hour()))
	case "k":
		return strconv.Itoa(hour24(t.Hour()))
	case "mm":
		return fmt.Sprintf("%02d", t.Minute())
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return fmt.Sprintf("%02d", t.Second())
	case "s":
		return strconv.Itoa(t.Second())
	case "SSS":
		return fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
	case "SS":
		return fmt.Sprintf("%02d", t.Nanosecond()/(10*int(time.Millisecond)))
	case "S":
		return strconv.Itoa(t.Nanosecond() / (100 * int(time.Millisecond)))
	case "A":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "a":
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	case "ZZ":
		return t.Format("-0700")
	case "Z":
		return t.Format("-07:00")
	case "X":
		return strconv.FormatInt(t.Unix(), 10)
	case "x":
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
	return tok
}

func hour12(h int) int {
	if h%12 == 0 {
		return 12
	}
	return h % 12
}

func hour24(h int) int {
	if h == 0 {
		return 24
	}
	return h
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
