package domain

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{
			name: "strict overlap",
			a:    Interval{Start: at(14, 0), End: at(15, 0)},
			b:    Interval{Start: at(14, 30), End: at(15, 30)},
			want: true,
		},
		{
			name: "touching endpoints do not overlap",
			a:    Interval{Start: at(14, 0), End: at(15, 0)},
			b:    Interval{Start: at(15, 0), End: at(16, 0)},
			want: false,
		},
		{
			name: "disjoint",
			a:    Interval{Start: at(9, 0), End: at(10, 0)},
			b:    Interval{Start: at(11, 0), End: at(12, 0)},
			want: false,
		},
		{
			name: "containment",
			a:    Interval{Start: at(9, 0), End: at(18, 0)},
			b:    Interval{Start: at(12, 0), End: at(13, 0)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Fatalf("Overlaps (reversed) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubtractIntervals(t *testing.T) {
	tests := []struct {
		name string
		base []Interval
		busy []Interval
		want []Interval
	}{
		{
			name: "lunch splits the working window",
			base: []Interval{{Start: at(9, 0), End: at(18, 0)}},
			busy: []Interval{{Start: at(12, 0), End: at(13, 0)}},
			want: []Interval{
				{Start: at(9, 0), End: at(12, 0)},
				{Start: at(13, 0), End: at(18, 0)},
			},
		},
		{
			name: "busy covering the whole window removes it",
			base: []Interval{{Start: at(9, 0), End: at(12, 0)}},
			busy: []Interval{{Start: at(8, 0), End: at(13, 0)}},
			want: []Interval{},
		},
		{
			name: "busy clipping the left edge",
			base: []Interval{{Start: at(9, 0), End: at(12, 0)}},
			busy: []Interval{{Start: at(8, 0), End: at(10, 0)}},
			want: []Interval{{Start: at(10, 0), End: at(12, 0)}},
		},
		{
			name: "touching busy leaves the window intact",
			base: []Interval{{Start: at(9, 0), End: at(12, 0)}},
			busy: []Interval{{Start: at(12, 0), End: at(13, 0)}},
			want: []Interval{{Start: at(9, 0), End: at(12, 0)}},
		},
		{
			name: "order of busy intervals does not matter",
			base: []Interval{{Start: at(9, 0), End: at(18, 0)}},
			busy: []Interval{
				{Start: at(15, 0), End: at(16, 0)},
				{Start: at(10, 0), End: at(11, 0)},
			},
			want: []Interval{
				{Start: at(9, 0), End: at(10, 0)},
				{Start: at(11, 0), End: at(15, 0)},
				{Start: at(16, 0), End: at(18, 0)},
			},
		},
		{
			name: "empty busy intervals are ignored",
			base: []Interval{{Start: at(9, 0), End: at(12, 0)}},
			busy: []Interval{{Start: at(10, 0), End: at(10, 0)}},
			want: []Interval{{Start: at(9, 0), End: at(12, 0)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubtractIntervals(tt.base, tt.busy)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for i := range got {
				if !got[i].Start.Equal(tt.want[i].Start) || !got[i].End.Equal(tt.want[i].End) {
					t.Fatalf("interval %d = %v..%v, want %v..%v", i, got[i].Start, got[i].End, tt.want[i].Start, tt.want[i].End)
				}
			}
		})
	}
}

func TestQuantizeSlots(t *testing.T) {
	tests := []struct {
		name string
		free []Interval
		want []Interval
	}{
		{
			name: "exact hours",
			free: []Interval{{Start: at(9, 0), End: at(11, 0)}},
			want: []Interval{
				{Start: at(9, 0), End: at(10, 0)},
				{Start: at(10, 0), End: at(11, 0)},
			},
		},
		{
			name: "trailing fraction is dropped",
			free: []Interval{{Start: at(9, 0), End: at(10, 30)}},
			want: []Interval{{Start: at(9, 0), End: at(10, 0)}},
		},
		{
			name: "interval shorter than one slot yields nothing",
			free: []Interval{{Start: at(9, 0), End: at(9, 45)}},
			want: []Interval{},
		},
		{
			name: "slots start on the interval boundary, not the hour",
			free: []Interval{{Start: at(9, 30), End: at(11, 30)}},
			want: []Interval{
				{Start: at(9, 30), End: at(10, 30)},
				{Start: at(10, 30), End: at(11, 30)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuantizeSlots(tt.free)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for i := range got {
				if !got[i].Start.Equal(tt.want[i].Start) || !got[i].End.Equal(tt.want[i].End) {
					t.Fatalf("slot %d = %v..%v, want %v..%v", i, got[i].Start, got[i].End, tt.want[i].Start, tt.want[i].End)
				}
				if !got[i].Available {
					t.Fatalf("slot %d not marked available", i)
				}
			}
		})
	}
}

func TestSubtractThenQuantize_FullDay(t *testing.T) {
	window := Interval{Start: at(9, 0), End: at(18, 0)}
	busy := []Interval{{Start: at(12, 0), End: at(13, 0)}}

	slots := QuantizeSlots(SubtractIntervals([]Interval{window}, busy))
	if len(slots) != 8 {
		t.Fatalf("len(slots) = %d, want 8", len(slots))
	}
	for _, s := range slots {
		if s.Start.Hour() == 12 {
			t.Fatalf("slot starting at 12:00 should have been subtracted")
		}
	}
}
