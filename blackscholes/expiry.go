package blackscholes

import (
	"time"

	"github.com/pkg/errors"
)

const (
	ExpiryDateLayout = "02/01/2006"
	secondsPerYear   = 365 * 24 * 60 * 60
)

// ParseExpiryDate reads a dd/mm/yyyy date. Options stay alive for the whole
// expiry day, so the returned instant is 23:59:59 in loc.
func ParseExpiryDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(ExpiryDateLayout, s, loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidParameter, "expiry date %q: %v", s, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc), nil
}

// TimeToExpiry is the year fraction between now and expiry on a 365 day year.
// It is negative once expiry has passed.
func TimeToExpiry(expiry, now time.Time) float64 {
	return expiry.Sub(now).Seconds() / secondsPerYear
}
