package repository

import "time"

// Marketplace statistics are reported per calendar day in Moscow time.
var salesDayZone = time.FixedZone("MSK", 3*60*60)

// SalesDay returns the sales day (YYYY-MM-DD) a timestamp belongs to.
func SalesDay(ts time.Time) string {
	return ts.In(salesDayZone).Format("2006-01-02")
}

// SalesDayNow returns the sales day for the current moment.
func SalesDayNow() string {
	return SalesDay(time.Now())
}

// SalesDayStart returns the instant the sales day containing ts began.
func SalesDayStart(ts time.Time) time.Time {
	local := ts.In(salesDayZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, salesDayZone)
}
