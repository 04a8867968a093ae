package utils

import "time"

// Pointer returns a pointer to the given value, handy for nullable
// timestamp fields on gorm models.
func Pointer[T any](v T) *T {
	return &v
}

// AddDays returns t shifted forward by the given number of days.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}
