package geom

import "sort"

// Interval is a closed one-dimensional range [Lo, Hi] on the x-axis.
type Interval struct {
	Lo float64
	Hi float64
}

// Empty reports whether the interval has no positive width.
func (iv Interval) Empty() bool {
	return iv.Hi <= iv.Lo
}

// Clip limits the interval to the given bounds. The result may be empty.
func (iv Interval) Clip(bounds Interval) Interval {
	if iv.Lo < bounds.Lo {
		iv.Lo = bounds.Lo
	}
	if iv.Hi > bounds.Hi {
		iv.Hi = bounds.Hi
	}
	return iv
}

// MergeIntervals sorts the intervals by their lower bound and merges any that
// overlap or touch, returning a disjoint ascending sequence. Empty intervals
// are discarded. The input slice is not modified.
func MergeIntervals(ivs []Interval) []Interval {
	var in []Interval
	for _, iv := range ivs {
		if !iv.Empty() {
			in = append(in, iv)
		}
	}
	if len(in) == 0 {
		return nil
	}

	sort.Slice(in, func(i, j int) bool { return in[i].Lo < in[j].Lo })

	merged := []Interval{in[0]}
	for _, iv := range in[1:] {
		last := &merged[len(merged)-1]
		if iv.Lo <= last.Hi {
			if iv.Hi > last.Hi {
				last.Hi = iv.Hi
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// SubtractIntervals removes the blocked intervals from span and returns the
// remaining free intervals in ascending order. blocked need not be sorted or
// disjoint; it is merged first. Zero-width remainders are dropped.
func SubtractIntervals(span Interval, blocked []Interval) []Interval {
	if span.Empty() {
		return nil
	}

	var clipped []Interval
	for _, iv := range blocked {
		if c := iv.Clip(span); !c.Empty() {
			clipped = append(clipped, c)
		}
	}

	var free []Interval
	cursor := span.Lo
	for _, iv := range MergeIntervals(clipped) {
		if iv.Lo > cursor {
			free = append(free, Interval{Lo: cursor, Hi: iv.Lo})
		}
		if iv.Hi > cursor {
			cursor = iv.Hi
		}
	}
	if cursor < span.Hi {
		free = append(free, Interval{Lo: cursor, Hi: span.Hi})
	}
	return free
}
