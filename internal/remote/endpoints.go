package remote

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/statustracker/internal/metrics"
	"github.com/hpungsan/statustracker/internal/tracker"
)

const nameMapKey = "name_map"

// NameMap fetches the entity index. Nil means the map could not be fetched.
// A successful fetch is reused for the configured name map TTL.
func (c *Client) NameMap(ctx context.Context) tracker.NameMap {
	if c.nameMapTTL > 0 {
		if v, ok := c.nameMaps.Get(nameMapKey); ok {
			c.metrics.FetchDone("/name_map", metrics.OutcomeCached, 0)
			return v.(tracker.NameMap)
		}
	}

	names, ok := getMsgPack[[]string](ctx, c, "/name_map", nil)
	if !ok {
		return nil
	}
	nm := tracker.NameMap(names)
	if nm == nil {
		nm = tracker.NameMap{}
	}
	if c.nameMapTTL > 0 {
		c.nameMaps.Set(nameMapKey, nm, c.nameMapTTL)
	}
	return nm
}

// Hours fetches the sparse hour records in [from, to]. Nil means no data.
func (c *Client) Hours(ctx context.Context, from, to tracker.HourTimestamp) []tracker.Hour {
	q := url.Values{}
	q.Set("from", strconv.FormatUint(uint64(from), 10))
	q.Set("to", strconv.FormatUint(uint64(to), 10))

	hours, ok := getMsgPack[[]tracker.Hour](ctx, c, "/", q)
	if !ok {
		return nil
	}
	if hours == nil {
		hours = []tracker.Hour{}
	}
	return hours
}

// RollingAverage fetches one pre-aggregated record per minute of [from, to]
// smoothed over window w. Nil entries mark minutes with no data; a nil
// slice means the fetch failed.
func (c *Client) RollingAverage(ctx context.Context, from, to tracker.MinuteTimestamp, w tracker.RollingAverage) []*tracker.RollingAvgRecord {
	q := url.Values{}
	q.Set("from", strconv.FormatUint(uint64(from), 10))
	q.Set("to", strconv.FormatUint(uint64(to), 10))
	q.Set("range", strconv.FormatUint(uint64(w), 10))

	recs, ok := getMsgPack[[]*tracker.RollingAvgRecord](ctx, c, "/", q)
	if !ok {
		return nil
	}
	if recs == nil {
		recs = []*tracker.RollingAvgRecord{}
	}
	return recs
}

// PlayerUUID resolves a display name to its UUID. Successful lookups are
// cached; unknown names and failures are not.
func (c *Client) PlayerUUID(ctx context.Context, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	key := strings.ToLower(name)
	if v, ok := c.uuids.Get(key); ok {
		c.metrics.FetchDone("/uuid", metrics.OutcomeCached, 0)
		return v.(string), true
	}

	id, ok := getMsgPack[*string](ctx, c, "/uuid/"+url.PathEscape(name), nil)
	if !ok || id == nil || *id == "" {
		return "", false
	}
	c.uuids.Set(key, *id, 0)
	return *id, true
}

// PlayerIntervals fetches server-computed presence for name over [from, to].
// The server reports inclusive (start, end) pairs; they are returned as
// half-open intervals. Nil means no data.
func (c *Client) PlayerIntervals(ctx context.Context, name string, from, to tracker.MinuteTimestamp) []tracker.Interval {
	q := url.Values{}
	q.Set("from", strconv.FormatUint(uint64(from), 10))
	q.Set("to", strconv.FormatUint(uint64(to), 10))

	pairs, ok := getMsgPack[[][]uint64](ctx, c, "/player/"+url.PathEscape(name), q)
	if !ok {
		return nil
	}
	out := make([]tracker.Interval, 0, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 || p[1] < p[0] {
			continue
		}
		out = append(out, tracker.Interval{
			Start: tracker.MinuteTimestamp(p[0]),
			End:   tracker.MinuteTimestamp(p[1] + 1),
		})
	}
	return out
}

// FlushCaches drops cached name maps and UUIDs.
func (c *Client) FlushCaches() {
	c.uuids.Flush()
	c.nameMaps.Flush()
}
