package chconv

import (
	"fmt"
	"time"
)

// BucketExpr renders the time-bucketing SQL expression a metric query's
// step size selects, per the breakpoint table in the backend converter
// design: the coarser the step, the coarser the ClickHouse rounding
// function, from raw TimestampTime up through toStartOfYear.
func BucketExpr(tsColumn string, step time.Duration) string {
	switch {
	case step < 5*time.Second:
		return tsColumn
	case step < 10*time.Second:
		return fmt.Sprintf("toStartOfInterval(%s, INTERVAL 5 SECOND)", tsColumn)
	case step < 15*time.Second:
		return fmt.Sprintf("toStartOfInterval(%s, INTERVAL 10 SECOND)", tsColumn)
	case step < 60*time.Second:
		return fmt.Sprintf("toStartOfInterval(%s, INTERVAL 30 SECOND)", tsColumn)
	case step < 5*time.Minute:
		return fmt.Sprintf("toStartOfMinute(%s)", tsColumn)
	case step < 10*time.Minute:
		return fmt.Sprintf("toStartOfFiveMinutes(%s)", tsColumn)
	case step < 30*time.Minute:
		return fmt.Sprintf("toStartOfTenMinutes(%s)", tsColumn)
	case step < time.Hour:
		return fmt.Sprintf("toStartOfInterval(%s, INTERVAL 30 MINUTE)", tsColumn)
	case step < 2*time.Hour:
		return fmt.Sprintf("toStartOfHour(%s)", tsColumn)
	case step < 24*time.Hour:
		return fmt.Sprintf("toStartOfInterval(%s, INTERVAL 2 HOUR)", tsColumn)
	case step < 7*24*time.Hour:
		return fmt.Sprintf("toStartOfDay(%s)", tsColumn)
	case step < 30*24*time.Hour:
		return fmt.Sprintf("toStartOfWeek(%s, 1)", tsColumn)
	case step < 365*24*time.Hour:
		return fmt.Sprintf("toStartOfMonth(%s)", tsColumn)
	default:
		return fmt.Sprintf("toStartOfYear(%s)", tsColumn)
	}
}
