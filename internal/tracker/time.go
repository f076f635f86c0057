package tracker

import "time"

// HourTimestamp counts whole hours since the Unix epoch.
type HourTimestamp uint32

// MinuteTimestamp counts whole minutes since the Unix epoch.
type MinuteTimestamp uint64

// MinutesPerHour is the number of minute slots in an hour record.
const MinutesPerHour = 60

// HourOf returns the hour containing t.
func HourOf(t time.Time) HourTimestamp {
	return HourTimestamp(t.Unix() / 3600)
}

// MinuteOf returns the minute containing t.
func MinuteOf(t time.Time) MinuteTimestamp {
	return MinuteTimestamp(t.Unix() / 60)
}

// Time returns the UTC start of the hour.
func (h HourTimestamp) Time() time.Time {
	return time.Unix(int64(h)*3600, 0).UTC()
}

// Minute returns the timestamp of minute m within the hour.
func (h HourTimestamp) Minute(m int) MinuteTimestamp {
	return MinuteTimestamp(h)*MinutesPerHour + MinuteTimestamp(m)
}

// Time returns the UTC start of the minute.
func (m MinuteTimestamp) Time() time.Time {
	return time.Unix(int64(m)*60, 0).UTC()
}

// Hour returns the hour containing the minute.
func (m MinuteTimestamp) Hour() HourTimestamp {
	return HourTimestamp(m / MinutesPerHour)
}
