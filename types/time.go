package types

import "time"

// Timestamp is a wire-safe representation of a point in time:
// seconds since the Unix epoch plus a nanosecond offset.
type Timestamp struct {
	Seconds int64 `cramberry:"1"`
	Nanos   int32 `cramberry:"2"`
}

// TimeToTimestamp converts a time.Time to a Timestamp.
func TimeToTimestamp(t time.Time) Timestamp {
	return Timestamp{
		Seconds: t.Unix(),
		Nanos:   int32(t.Nanosecond()),
	}
}

// ToTime converts a Timestamp to a time.Time (UTC).
func (ts Timestamp) ToTime() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// UnixMilli returns the block time in milliseconds, the unit contract
// environments bind their timestamp type to. Times before the epoch
// clamp to zero.
func (ts Timestamp) UnixMilli() uint64 {
	ms := ts.ToTime().UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}
