package canteen

import "time"

// Lead-time rules, in whole calendar days before the delivery day. The
// window is a pure function of (delivery day, now): nothing is persisted,
// and since the clock only moves forward a closed window never reopens.
//
// Cancellation is allowed one day longer than modification: a cancel only
// frees capacity, while a quantity change has to be re-validated against a
// moving target, so planning gets one extra day of notice before changes
// are barred.
const (
	minLeadDaysCreate = 3 // order at least 3 days ahead
	minLeadDaysModify = 2 // strictly before the eve of delivery
	minLeadDaysCancel = 1 // strictly before the delivery day
)

// DaysUntil counts whole calendar days from "now" (taken in loc) to the
// delivery day. Same-day is 0, tomorrow is 1, past days are negative. The
// delivery day is a date value, so its own wall date is used as-is: a DATE
// column scans back as midnight UTC, and converting that into a location
// west of UTC would land on the previous day. Both dates are re-anchored in
// UTC before subtracting so a DST shift in loc cannot skew the count.
func DaysUntil(deliveryDay, now time.Time, loc *time.Location) int {
	fy, fm, fd := now.In(loc).Date()
	ty, tm, td := deliveryDay.Date()
	from := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	to := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

func CanCreate(deliveryDay, now time.Time, loc *time.Location) bool {
	return DaysUntil(deliveryDay, now, loc) >= minLeadDaysCreate
}

func CanModify(deliveryDay, now time.Time, loc *time.Location) bool {
	return DaysUntil(deliveryDay, now, loc) >= minLeadDaysModify
}

func CanCancel(deliveryDay, now time.Time, loc *time.Location) bool {
	return DaysUntil(deliveryDay, now, loc) >= minLeadDaysCancel
}
