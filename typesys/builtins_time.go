package typesys

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	ticksPerDuration = 100 // nanoseconds per tick
	day              = 24 * time.Hour
)

var (
	minDateTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxDateTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999900, time.UTC)
)

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func newDateTime(year, month, d, h, m, s int32) (any, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 || d < 1 || int(d) > daysIn(int(year), time.Month(month)) ||
		h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return nil, fmt.Errorf("%w: year, month and day parameters describe an unrepresentable DateTime", ErrOutOfRange)
	}

	return time.Date(int(year), time.Month(month), int(d), int(h), int(m), int(s), 0, time.UTC), nil
}

// addMonths clamps the day to the last day of the resulting month
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}

	return first.AddDate(0, 0, d-1)
}

func scaled(f float64, unit time.Duration) (time.Duration, error) {
	v := f * float64(unit)
	if math.IsNaN(v) || v > math.MaxInt64 || v < math.MinInt64 {
		return 0, fmt.Errorf("%w: TimeSpan overflowed", ErrOverflow)
	}

	return time.Duration(math.Round(v/ticksPerDuration) * ticksPerDuration), nil
}

func buildDateTimeMembers(b builder) {
	b.constructor(func(_ any, args []any) (any, error) {
		return newDateTime(argAs[int32](args, 0), argAs[int32](args, 1), argAs[int32](args, 2), 0, 0, 0)
	}, Int32, Int32, Int32)
	b.constructor(func(_ any, args []any) (any, error) {
		return newDateTime(argAs[int32](args, 0), argAs[int32](args, 1), argAs[int32](args, 2),
			argAs[int32](args, 3), argAs[int32](args, 4), argAs[int32](args, 5))
	}, Int32, Int32, Int32, Int32, Int32, Int32)

	b.constant("MinValue", DateTime, minDateTime)
	b.constant("MaxValue", DateTime, maxDateTime)
	b.staticProp("Now", DateTime, func(any) (any, error) { return time.Now(), nil })
	b.staticProp("UtcNow", DateTime, func(any) (any, error) { return time.Now().UTC(), nil })
	b.staticProp("Today", DateTime, func(any) (any, error) {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	})
	b.static("Parse", DateTime, fn1(func(s string) (any, error) { return Parse(s, DateTime) }), String)
	b.static("DaysInMonth", Int32, fn2(func(y, m int32) (any, error) {
		if m < 1 || m > 12 {
			return nil, fmt.Errorf("%w: month %d", ErrOutOfRange, m)
		}

		return int32(daysIn(int(y), time.Month(m))), nil
	}), Int32, Int32)
	b.static("IsLeapYear", Boolean, fn1(func(y int32) (any, error) {
		return daysIn(int(y), time.February) == 29, nil
	}), Int32)

	component := func(name string, f func(t time.Time) int) {
		b.prop(name, Int32, get(func(t time.Time) any { return int32(f(t)) }))
	}

	component("Year", time.Time.Year)
	component("Month", func(t time.Time) int { return int(t.Month()) })
	component("Day", time.Time.Day)
	component("Hour", time.Time.Hour)
	component("Minute", time.Time.Minute)
	component("Second", time.Time.Second)
	component("Millisecond", func(t time.Time) int { return t.Nanosecond() / int(time.Millisecond) })
	component("DayOfYear", time.Time.YearDay)
	b.prop("Ticks", Int64, get(func(t time.Time) any {
		return (t.Unix()-minDateTime.Unix())*int64(time.Second/ticksPerDuration) + int64(t.Nanosecond()/ticksPerDuration)
	}))
	b.prop("Date", DateTime, get(func(t time.Time) any {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}))
	b.prop("TimeOfDay", TimeSpan, get(func(t time.Time) any {
		y, m, d := t.Date()
		return t.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
	}))

	add := func(name string, unit time.Duration) {
		b.method(name, DateTime, on1(func(t time.Time, f float64) (any, error) {
			d, err := scaled(f, unit)
			if err != nil {
				return nil, err
			}

			return t.Add(d), nil
		}), Double)
	}

	add("AddDays", day)
	add("AddHours", time.Hour)
	add("AddMinutes", time.Minute)
	add("AddSeconds", time.Second)
	add("AddMilliseconds", time.Millisecond)
	b.method("AddMonths", DateTime, on1(func(t time.Time, n int32) (any, error) { return addMonths(t, int(n)), nil }), Int32)
	b.method("AddYears", DateTime, on1(func(t time.Time, n int32) (any, error) { return addMonths(t, 12*int(n)), nil }), Int32)
	b.method("Add", DateTime, on1(func(t time.Time, d time.Duration) (any, error) { return t.Add(d), nil }), TimeSpan)
	b.method("Subtract", DateTime, on1(func(t time.Time, d time.Duration) (any, error) { return t.Add(-d), nil }), TimeSpan)
	b.method("Subtract", TimeSpan, on1(func(t, u time.Time) (any, error) { return t.Sub(u), nil }), DateTime)
	b.method("CompareTo", Int32, on1(func(t, u time.Time) (any, error) { return int32(t.Compare(u)), nil }), DateTime)
}

func buildTimeSpanMembers(b builder) {
	hms := func(d, h, m, s, ms int32) (any, error) {
		total := float64(d)*float64(day) + float64(h)*float64(time.Hour) + float64(m)*float64(time.Minute) +
			float64(s)*float64(time.Second) + float64(ms)*float64(time.Millisecond)
		if total > math.MaxInt64 || total < math.MinInt64 {
			return nil, fmt.Errorf("%w: TimeSpan too long", ErrOutOfRange)
		}

		return time.Duration(d)*day + time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
			time.Duration(s)*time.Second + time.Duration(ms)*time.Millisecond, nil
	}

	b.constructor(fn1(func(ticks int64) (any, error) {
		if ticks > math.MaxInt64/ticksPerDuration || ticks < math.MinInt64/ticksPerDuration {
			return nil, fmt.Errorf("%w: TimeSpan too long", ErrOutOfRange)
		}

		return time.Duration(ticks * ticksPerDuration), nil
	}), Int64)
	b.constructor(func(_ any, args []any) (any, error) {
		return hms(0, argAs[int32](args, 0), argAs[int32](args, 1), argAs[int32](args, 2), 0)
	}, Int32, Int32, Int32)
	b.constructor(func(_ any, args []any) (any, error) {
		return hms(argAs[int32](args, 0), argAs[int32](args, 1), argAs[int32](args, 2), argAs[int32](args, 3), 0)
	}, Int32, Int32, Int32, Int32)
	b.constructor(func(_ any, args []any) (any, error) {
		return hms(argAs[int32](args, 0), argAs[int32](args, 1), argAs[int32](args, 2), argAs[int32](args, 3), argAs[int32](args, 4))
	}, Int32, Int32, Int32, Int32, Int32)

	b.constant("Zero", TimeSpan, time.Duration(0))
	b.constant("MinValue", TimeSpan, time.Duration(math.MinInt64))
	b.constant("MaxValue", TimeSpan, time.Duration(math.MaxInt64))
	b.static("Parse", TimeSpan, fn1(func(s string) (any, error) { return Parse(s, TimeSpan) }), String)

	from := func(name string, unit time.Duration) {
		b.static(name, TimeSpan, fn1(func(f float64) (any, error) {
			d, err := scaled(f, unit)
			if err != nil {
				return nil, err
			}

			return d, nil
		}), Double)
	}

	from("FromDays", day)
	from("FromHours", time.Hour)
	from("FromMinutes", time.Minute)
	from("FromSeconds", time.Second)
	from("FromMilliseconds", time.Millisecond)

	component := func(name string, unit, modulo time.Duration) {
		b.prop(name, Int32, get(func(d time.Duration) any {
			if modulo == 0 {
				return int32(d / unit)
			}

			return int32(d % modulo / unit)
		}))
	}

	component("Days", day, 0)
	component("Hours", time.Hour, day)
	component("Minutes", time.Minute, time.Hour)
	component("Seconds", time.Second, time.Minute)
	component("Milliseconds", time.Millisecond, time.Second)
	b.prop("Ticks", Int64, get(func(d time.Duration) any { return int64(d / ticksPerDuration) }))

	total := func(name string, unit time.Duration) {
		b.prop(name, Double, get(func(d time.Duration) any { return float64(d) / float64(unit) }))
	}

	total("TotalDays", day)
	total("TotalHours", time.Hour)
	total("TotalMinutes", time.Minute)
	total("TotalSeconds", time.Second)
	total("TotalMilliseconds", time.Millisecond)

	b.method("Add", TimeSpan, on1(func(d, e time.Duration) (any, error) { return AddChecked(d, e) }), TimeSpan)
	b.method("Subtract", TimeSpan, on1(func(d, e time.Duration) (any, error) { return d - e, nil }), TimeSpan)
	b.method("Negate", TimeSpan, on(func(d time.Duration) (any, error) { return -d, nil }))
	b.method("Duration", TimeSpan, on(func(d time.Duration) (any, error) { return d.Abs(), nil }))
}

func buildGuidMembers(b builder) {
	b.constructor(fn1(func(s string) (any, error) { return Parse(s, Guid) }), String)
	b.constant("Empty", Guid, uuid.Nil)
	b.volatile("NewGuid", Guid, fn0(func() (any, error) { return uuid.New(), nil }))
	b.static("Parse", Guid, fn1(func(s string) (any, error) { return Parse(s, Guid) }), String)
}
