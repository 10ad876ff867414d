package domain

import "time"

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports strict overlap: touching endpoints do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && iv.End.After(o.Start)
}

// IsEmpty reports whether the interval covers no time at all.
func (iv Interval) IsEmpty() bool {
	return !iv.End.After(iv.Start)
}

// SubtractIntervals removes every busy interval from the base set. Each busy
// interval splits any free interval it overlaps into the parts before and
// after it; fully covered intervals disappear. The result is independent of
// the order busy intervals are applied in.
func SubtractIntervals(base []Interval, busy []Interval) []Interval {
	free := make([]Interval, 0, len(base))
	for _, iv := range base {
		if !iv.IsEmpty() {
			free = append(free, iv)
		}
	}

	for _, b := range busy {
		if b.IsEmpty() {
			continue
		}
		next := make([]Interval, 0, len(free)+1)
		for _, a := range free {
			if !a.Overlaps(b) {
				next = append(next, a)
				continue
			}
			if a.Start.Before(b.Start) {
				next = append(next, Interval{Start: a.Start, End: b.Start})
			}
			if b.End.Before(a.End) {
				next = append(next, Interval{Start: b.End, End: a.End})
			}
		}
		free = next
	}

	return free
}

// SlotDuration is the fixed size of an offerable slot.
const SlotDuration = time.Hour

// TimeSlot is a quantized, offerable sub-interval of free time.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// QuantizeSlots walks each free interval in SlotDuration increments and
// emits a slot for every increment that fits entirely. Intervals shorter
// than one increment yield nothing: no partial slots are offered.
func QuantizeSlots(free []Interval) []TimeSlot {
	slots := make([]TimeSlot, 0, len(free))
	for _, iv := range free {
		for cur := iv.Start; !cur.Add(SlotDuration).After(iv.End); cur = cur.Add(SlotDuration) {
			slots = append(slots, TimeSlot{
				Start:     cur,
				End:       cur.Add(SlotDuration),
				Available: true,
			})
		}
	}
	return slots
}
