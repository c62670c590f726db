package fee

import (
	"fmt"
	"math"
	"time"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

// DefaultRateCZKPerM2Day is the statutory fallback rate applied when
// the municipality configures no override.
const DefaultRateCZKPerM2Day = 10.0

// Compute derives the occupancy fee. Duration counts both boundary
// days, so a permit from the 1st to the 1st occupies one day. The
// total is rounded half-up to whole crowns.
func Compute(areaM2 float64, start, end time.Time, rateCZKPerM2Day float64) (domain.FeeAssessment, error) {
	if areaM2 < 0 {
		return domain.FeeAssessment{}, domain.WrapError(domain.ErrInvalidRange, "fee.compute",
			fmt.Errorf("area %.2f m2 is negative", areaM2))
	}
	if rateCZKPerM2Day < 0 {
		return domain.FeeAssessment{}, domain.WrapError(domain.ErrInvalidRange, "fee.compute",
			fmt.Errorf("rate %.2f CZK/m2/day is negative", rateCZKPerM2Day))
	}
	days, err := daysInclusive(start, end)
	if err != nil {
		return domain.FeeAssessment{}, err
	}

	total := int64(math.Floor(areaM2*float64(days)*rateCZKPerM2Day + 0.5))
	return domain.FeeAssessment{
		AreaM2:          areaM2,
		DurationDays:    days,
		RateCZKPerM2Day: rateCZKPerM2Day,
		TotalCZK:        total,
	}, nil
}

// daysInclusive counts calendar days between two dates, both ends
// included. Inputs are normalized to UTC midnight so wall-clock zones
// on either side cannot skew the count.
func daysInclusive(start, end time.Time) (int, error) {
	s := midnightUTC(start)
	e := midnightUTC(end)
	if e.Before(s) {
		return 0, domain.WrapError(domain.ErrInvalidRange, "fee.compute",
			fmt.Errorf("end date %s precedes start date %s",
				e.Format("2006-01-02"), s.Format("2006-01-02")))
	}
	return int(e.Sub(s)/(24*time.Hour)) + 1, nil
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
