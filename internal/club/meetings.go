package club

import (
	"fmt"
	"strconv"
	"time"
)

// Cadence of a recurring meeting schedule.
type Cadence string

const (
	Daily   Cadence = "Daily"
	Weekly  Cadence = "Weekly"
	Monthly Cadence = "Monthly"
)

// GenerateMeetings produces count meetings starting at start, advancing one
// cadence unit per step, all Active and sharing the given title, time, and
// location. The caller appends the result to the existing collection; no
// dedup against existing meetings is attempted. Each id carries the batch
// index as a suffix so meetings minted in the same batch stay distinct.
func GenerateMeetings(start time.Time, cadence Cadence, count int, title, meetingTime, location string) ([]Meeting, error) {
	if count <= 0 {
		return nil, fmt.Errorf("generate meetings: count must be positive, got %d", count)
	}
	switch cadence {
	case Daily, Weekly, Monthly:
	default:
		return nil, fmt.Errorf("generate meetings: unknown cadence %q", cadence)
	}

	base := strconv.FormatInt(time.Now().UnixNano(), 10)
	meetings := make([]Meeting, 0, count)
	date := start
	for i := 0; i < count; i++ {
		meetings = append(meetings, Meeting{
			ID:          base + "-" + strconv.Itoa(i),
			Title:       title,
			Date:        date.Format("2006-01-02"),
			Time:        meetingTime,
			Location:    location,
			Description: "",
			Status:      MeetingActive,
		})
		switch cadence {
		case Daily:
			date = date.AddDate(0, 0, 1)
		case Weekly:
			date = date.AddDate(0, 0, 7)
		case Monthly:
			date = date.AddDate(0, 1, 0)
		}
	}
	return meetings, nil
}
