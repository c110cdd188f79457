// internal/app/messages.go
package app

import (
	"fmt"
	"html"
	"strings"
	"time"

	"homestock_notifier/internal/domain/grocery"
)

const (
	displayDateLayout = "1/2/2006"
	secondsPerDay     = 24 * 60 * 60
)

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns the last representable instant of t's day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// daysUntil counts calendar days from today to expiry. Negative for expired items.
// Both dates are projected onto UTC midnights so DST shifts never skew the count.
func daysUntil(today, expiry time.Time) int {
	expiry = expiry.In(today.Location())
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}

// earliestExpiry returns the grocery with the soonest expiry date.
func earliestExpiry(groceries []*grocery.Grocery) *grocery.Grocery {
	var earliest *grocery.Grocery
	for _, g := range groceries {
		if earliest == nil || g.ExpiryDate.Before(earliest.ExpiryDate) {
			earliest = g
		}
	}
	return earliest
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(displayDateLayout)
}

func composeEmail(name string, groceries []*grocery.Grocery, today time.Time) (subject, body string) {
	daysNotice := daysUntil(today, earliestExpiry(groceries).ExpiryDate)
	loc := today.Location()

	var items strings.Builder
	for _, g := range groceries {
		items.WriteString(fmt.Sprintf("<li><strong>%s</strong> - Expires on: %s (in %d days)</li>\n",
			html.EscapeString(g.Name), formatDate(g.ExpiryDate, loc), daysUntil(today, g.ExpiryDate)))
	}

	subject = fmt.Sprintf("Homestock: Grocery Items Expiring in %d days", daysNotice)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>Hello %s,</h2>\n", html.EscapeString(name)))
	b.WriteString(fmt.Sprintf("<p>The following grocery items in your Homestock inventory will expire in %d days:</p>\n", daysNotice))
	b.WriteString("<ul>\n")
	b.WriteString(items.String())
	b.WriteString("</ul>\n")
	b.WriteString("<p>Please check your Homestock app for more details.</p>\n")
	b.WriteString("<p>Thank you for using Homestock!</p>\n")
	return subject, b.String()
}

func composeChatMessage(name string, groceries []*grocery.Grocery, today time.Time) string {
	names := make([]string, 0, len(groceries))
	for _, g := range groceries {
		names = append(names, g.Name)
	}
	expiry := formatDate(earliestExpiry(groceries).ExpiryDate, today.Location())
	return fmt.Sprintf("Hello %s, your item(s) %s will expire on %s. Please check your Homestock inventory.",
		name, strings.Join(names, ", "), expiry)
}

func composeTextMessage(name string, groceries []*grocery.Grocery, horizonDays int, today time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Hello %s, the following grocery items in your Homestock inventory will expire within %d days:\n\n", name, horizonDays))
	for _, g := range groceries {
		b.WriteString(fmt.Sprintf("• %s - Expires on: %s\n", g.Name, formatDate(g.ExpiryDate, today.Location())))
	}
	b.WriteString("\nPlease check your Homestock app for more details.")
	return b.String()
}
