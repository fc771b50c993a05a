package export

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampMode selects how FormatTimestamp renders a timestamp.
type TimestampMode string

const (
	TimestampFull     TimestampMode = "full"
	TimestampTime     TimestampMode = "time"
	TimestampRelative TimestampMode = "relative"
)

// FormatTimestamp renders ts (epoch ms) in loc. Relative mode compares against now.
func FormatTimestamp(ts int64, mode TimestampMode, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.UnixMilli(ts).In(loc)
	switch mode {
	case TimestampTime:
		return t.Format("15:04:05")
	case TimestampRelative:
		return RelativeTime(ts, now, loc)
	default:
		return t.Format("2006/01/02 15:04:05")
	}
}

// RelativeTime describes how long ago ts was, falling back to the full
// timestamp after a week.
func RelativeTime(ts int64, now time.Time, loc *time.Location) string {
	diff := now.UnixMilli() - ts
	const (
		second = int64(1000)
		minute = 60 * second
		hour   = 60 * minute
		day    = 24 * hour
	)
	switch {
	case diff < second:
		return "刚刚"
	case diff < minute:
		return fmt.Sprintf("%d秒前", diff/second)
	case diff < hour:
		return fmt.Sprintf("%d分钟前", diff/minute)
	case diff < day:
		return fmt.Sprintf("%d小时前", diff/hour)
	case diff < 7*day:
		return fmt.Sprintf("%d天前", diff/day)
	default:
		return FormatTimestamp(ts, TimestampFull, now, loc)
	}
}

// FormatMessage escapes newlines and tabs and truncates to maxLength runes
// (0 disables truncation).
func FormatMessage(message string, maxLength int) string {
	formatted := strings.ReplaceAll(message, "\n", `\n`)
	formatted = strings.ReplaceAll(formatted, "\t", `\t`)
	if maxLength > 0 {
		formatted = Truncate(formatted, maxLength, "...")
	}
	return formatted
}

// FormatDetails renders a details payload for display.
func FormatDetails(details any, compact bool) string {
	switch v := details.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}

	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(details)
	} else {
		data, err = json.MarshalIndent(details, "", "  ")
	}
	if err != nil {
		return fmt.Sprint(details)
	}
	return string(data)
}

// Truncate shortens text to maxLength runes including the ellipsis.
func Truncate(text string, maxLength int, ellipsis string) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	keep := maxLength - len([]rune(ellipsis))
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + ellipsis
}

// FormatFileSize renders a byte count with a binary unit.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	return strconv.FormatFloat(math.Round(value*100)/100, 'f', -1, 64) + " " + sizes[i]
}
