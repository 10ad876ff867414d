package domain

import (
	"errors"
	"time"
)

// DayCapacity is the resolved open/closed window for a single date, before
// any busy time is subtracted.
type DayCapacity struct {
	Open      bool
	StartTime string
	EndTime   string
	// FixedSlots carries the special day's literal "HH:MM-HH:MM" strings,
	// empty when the day comes from a weekly rule.
	FixedSlots []string
}

// ResolveDayCapacity applies the override precedence for one date: an
// existing special day replaces the weekly rule entirely (it is not merged
// with it); otherwise the weekly rule for that weekday applies; an absent or
// closed rule means a closed day.
func ResolveDayCapacity(date time.Time, rules []WeeklyRule, specials []SpecialDay) DayCapacity {
	dateKey := date.Format(DateLayout)
	for _, sd := range specials {
		if sd.Date == dateKey {
			return DayCapacity{
				Open:       sd.IsActive,
				StartTime:  sd.StartTime,
				EndTime:    sd.EndTime,
				FixedSlots: sd.BookedSlots,
			}
		}
	}

	weekday := WeekdayIndex(date)
	for _, r := range rules {
		if r.Weekday == weekday {
			return DayCapacity{
				Open:      r.IsOpen,
				StartTime: r.StartTime,
				EndTime:   r.EndTime,
			}
		}
	}

	return DayCapacity{}
}

// DaySkeleton is one day of the merged calendar: the resolved window plus
// the blackout verdict, before sessions are attached.
type DaySkeleton struct {
	Date       time.Time
	IsActive   bool
	StartTime  string
	EndTime    string
	FixedSlots []string
}

// BuildDaySkeletons merges the three schedule layers over an inclusive date
// range. A blackout period whose date span covers a day forces it inactive
// but leaves the displayed window bounds untouched. The function is pure:
// the same inputs always produce the same skeletons.
func BuildDaySkeletons(start, end time.Time, rules []WeeklyRule, specials []SpecialDay, blackouts []UnavailablePeriod, loc *time.Location) ([]DaySkeleton, error) {
	if end.Before(start) {
		return nil, errors.New("date range inverted")
	}

	days := make([]DaySkeleton, 0, int(end.Sub(start)/(24*time.Hour))+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		capacity := ResolveDayCapacity(d, rules, specials)
		sk := DaySkeleton{
			Date:       d,
			IsActive:   capacity.Open,
			StartTime:  capacity.StartTime,
			EndTime:    capacity.EndTime,
			FixedSlots: capacity.FixedSlots,
		}

		// Blackout always wins over open hours, even a special day's.
		for _, b := range blackouts {
			if coversDate(b, d, loc) {
				sk.IsActive = false
				break
			}
		}

		days = append(days, sk)
	}

	return days, nil
}

func coversDate(p UnavailablePeriod, date time.Time, loc *time.Location) bool {
	dateKey := date.Format(DateLayout)
	startKey := p.StartTime.In(loc).Format(DateLayout)
	endKey := p.EndTime.In(loc).Format(DateLayout)
	return startKey <= dateKey && dateKey <= endKey
}

// FreeSlotsForDay subtracts busy intervals from the day's capacity window
// and quantizes the remainder. A closed or windowless day yields no slots;
// so does a window shorter than one slot.
func FreeSlotsForDay(date time.Time, capacity DayCapacity, busy []Interval, loc *time.Location) ([]TimeSlot, error) {
	if !capacity.Open || capacity.StartTime == "" || capacity.EndTime == "" {
		return []TimeSlot{}, nil
	}

	window, err := WindowOnDate(date, capacity.StartTime, capacity.EndTime, loc)
	if err != nil {
		return nil, err
	}
	if window.IsEmpty() {
		return []TimeSlot{}, nil
	}

	free := SubtractIntervals([]Interval{window}, busy)
	return QuantizeSlots(free), nil
}
