package tracker

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// MinuteRecord is the state change recorded for one minute of an hour.
// It is either a Snapshot or a Delta.
type MinuteRecord interface {
	isMinuteRecord()
}

// Snapshot is an authoritative list of every present entity at a minute.
type Snapshot struct {
	All        []int              `json:"all"`
	Categories map[Category][]int `json:"categories,omitempty"`
}

// Delta lists the entities that joined and left since the previous tracked minute.
type Delta struct {
	Joined           []int              `json:"joined"`
	JoinedCategories map[Category][]int `json:"joined_categories,omitempty"`
	Left             []int              `json:"left"`
	LeftCategories   map[Category][]int `json:"left_categories,omitempty"`
}

func (Snapshot) isMinuteRecord() {}
func (Delta) isMinuteRecord()    {}

// Records maps a minute-of-hour key ("0".."59") to its record.
type Records map[string]MinuteRecord

// At returns the record for minute m, if any.
func (r Records) At(m int) (MinuteRecord, bool) {
	rec, ok := r[strconv.Itoa(m)]
	return rec, ok && rec != nil
}

// Hour is one hour of sparse tracking data as served by the tracker.
type Hour struct {
	ID          HourTimestamp `msgpack:"_id" json:"_id"`
	TrackedMins BitField      `msgpack:"tracked_mins" json:"tracked_mins"`
	Deltas      Records       `msgpack:"deltas" json:"deltas"`
}

// Tracked reports whether minute m of the hour carries authoritative data.
func (h *Hour) Tracked(m int) bool {
	return h != nil && h.TrackedMins.IsOn(m)
}

// RollingAvgRecord is one pre-aggregated minute from the rolling-average endpoint.
type RollingAvgRecord struct {
	All        float64              `msgpack:"all" json:"all"`
	Categories map[Category]float64 `msgpack:"categories" json:"categories"`
}

// wireRecord is the untagged union as it appears on the wire. The presence
// of "all" selects the Snapshot shape.
type wireRecord struct {
	All              *[]int             `msgpack:"all"`
	Categories       map[Category][]int `msgpack:"categories"`
	Joined           []int              `msgpack:"joined"`
	JoinedCategories map[Category][]int `msgpack:"joined_categories"`
	Left             []int              `msgpack:"left"`
	LeftCategories   map[Category][]int `msgpack:"left_categories"`
}

type wireSnapshot struct {
	All        []int              `msgpack:"all"`
	Categories map[Category][]int `msgpack:"categories"`
}

type wireDelta struct {
	Joined           []int              `msgpack:"joined"`
	JoinedCategories map[Category][]int `msgpack:"joined_categories"`
	Left             []int              `msgpack:"left"`
	LeftCategories   map[Category][]int `msgpack:"left_categories"`
}

// DecodeMsgpack decodes the untagged wire union into Snapshot or Delta values.
func (r *Records) DecodeMsgpack(dec *msgpack.Decoder) error {
	var raw map[string]wireRecord
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out := make(Records, len(raw))
	for key, w := range raw {
		m, err := strconv.Atoi(key)
		if err != nil || m < 0 || m >= MinutesPerHour {
			return fmt.Errorf("deltas: invalid minute key %q", key)
		}
		if w.All != nil {
			out[key] = Snapshot{All: *w.All, Categories: w.Categories}
			continue
		}
		out[key] = Delta{
			Joined:           w.Joined,
			JoinedCategories: w.JoinedCategories,
			Left:             w.Left,
			LeftCategories:   w.LeftCategories,
		}
	}
	*r = out
	return nil
}

// EncodeMsgpack writes records in ascending minute order.
func (r Records) EncodeMsgpack(enc *msgpack.Encoder) error {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	if err := enc.EncodeMapLen(len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		var v any
		switch rec := r[k].(type) {
		case Snapshot:
			v = wireSnapshot{All: nonNil(rec.All), Categories: rec.Categories}
		case Delta:
			v = wireDelta{
				Joined:           nonNil(rec.Joined),
				JoinedCategories: rec.JoinedCategories,
				Left:             nonNil(rec.Left),
				LeftCategories:   rec.LeftCategories,
			}
		default:
			return fmt.Errorf("deltas: unsupported record %T at minute %s", rec, k)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func nonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
