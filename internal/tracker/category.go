package tracker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Category labels a subset of tracked entities.
type Category string

// CategoryAll is the unfiltered aggregate. No real category may use it.
const CategoryAll Category = "all"

// ValidateCategory rejects empty names and the reserved aggregate name.
func ValidateCategory(c Category) error {
	if strings.TrimSpace(string(c)) == "" {
		return fmt.Errorf("category must not be empty")
	}
	if c == CategoryAll {
		return fmt.Errorf("category name %q is reserved", CategoryAll)
	}
	return nil
}

// SortCategories orders categories with "all" first and the rest alphabetically.
func SortCategories(cats []Category) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i] == CategoryAll || cats[j] == CategoryAll {
			return cats[i] == CategoryAll && cats[j] != CategoryAll
		}
		return cats[i] < cats[j]
	})
}

// RollingAverage is a smoothing window in minutes.
type RollingAverage uint64

const (
	Raw     RollingAverage = 0
	OneHour RollingAverage = 60
	HalfDay RollingAverage = 720
	OneDay  RollingAverage = 1440
	OneWeek RollingAverage = 10080
)

// RollingAverages lists every supported window in ascending order.
var RollingAverages = []RollingAverage{Raw, OneHour, HalfDay, OneDay, OneWeek}

var rollingLabels = map[RollingAverage]string{
	Raw:     "Raw",
	OneHour: "1 hour",
	HalfDay: "12 hours",
	OneDay:  "1 day",
	OneWeek: "1 week",
}

// Label returns the display label of the window.
func (r RollingAverage) Label() string {
	if l, ok := rollingLabels[r]; ok {
		return l
	}
	return fmt.Sprintf("%d minutes", uint64(r))
}

// Valid reports whether r is one of the supported windows.
func (r RollingAverage) Valid() bool {
	_, ok := rollingLabels[r]
	return ok
}

// ParseRollingAverage accepts a window in minutes ("720") or its label ("12 hours").
func ParseRollingAverage(s string) (RollingAverage, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		r := RollingAverage(n)
		if !r.Valid() {
			return 0, fmt.Errorf("unsupported rolling average window: %d", n)
		}
		return r, nil
	}
	for r, label := range rollingLabels {
		if strings.EqualFold(label, s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rolling average %q", s)
}
