package services

import (
	"time"

	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/model"
)

const dayLayout = "2006-01-02"

// userLocation resolves the timezone the server-day boundary is computed in.
// A per-account zone overrides the service-wide default.
func userLocation(u *model.User, cfg *config.Config) *time.Location {
	if u != nil && u.TimeZone != "" {
		if loc, err := time.LoadLocation(u.TimeZone); err == nil {
			return loc
		}
	}
	return cfg.Location()
}

// dayKey renders the calendar day of t in loc. Two instants share a key
// exactly when they fall on the same local day.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

// daysBetween returns how many calendar days separate two day keys.
// Keys are plain dates, so the arithmetic is DST-free.
func daysBetween(from, to string) int {
	a, errA := time.Parse(dayLayout, from)
	b, errB := time.Parse(dayLayout, to)
	if errA != nil || errB != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}
