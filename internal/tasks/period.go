package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/toparr/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SentinelOrigin labels candidates no configured provider can be attributed to.
const SentinelOrigin = "trending_week"

// CurrentPeriod returns the ISO week and ISO week-year of now().
//
// The year is the week-year, so 2024-12-30 belongs to week 1 of 2025.
func CurrentPeriod(now func() time.Time) models.SyncPeriod {
	if now == nil {
		now = time.Now
	}
	return PeriodOf(now())
}

// PeriodOf returns the ISO period containing t.
func PeriodOf(t time.Time) models.SyncPeriod {
	year, week := t.ISOWeek()
	return models.SyncPeriod{Week: week, Year: year}
}

// LabelText builds "<origin>_kw<week>_<year>" for a provider display name or [SentinelOrigin].
func LabelText(origin string, period models.SyncPeriod) string {
	return fmt.Sprintf("%s_%s", OriginToken(origin), period)
}

// OriginToken lower-cases a provider name and joins its words with underscores.
//
// "Amazon Prime Video" becomes "amazon_prime_video".
func OriginToken(name string) string {
	fields := strings.Fields(cases.Lower(language.Und).String(name))
	if len(fields) == 0 {
		return SentinelOrigin
	}
	return strings.Join(fields, "_")
}
