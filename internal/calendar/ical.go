// Package calendar renders a property's bookings as an iCalendar document so
// external calendar tools can block out booked dates.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrznstays/direct-booking-api/internal/booking"
)

const (
	uidDomain   = "hrzn.com"
	stampLayout = "20060102T150405Z"
)

// Render produces one VCALENDAR with one VEVENT per booking. An empty
// booking list yields a valid zero-event calendar. Rendering is pure: it
// takes a snapshot of bookings and touches nothing else.
func Render(propertyCode string, bookings []booking.Booking) []byte {
	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, fmt.Sprintf("PRODID:-//HRZN//Direct Bookings %s//EN", strings.ToUpper(propertyCode)))

	for _, bk := range bookings {
		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, "UID:"+bk.ID+"@"+uidDomain)
		writeLine(&b, "DTSTART:"+stamp(bk.CheckIn))
		writeLine(&b, "DTEND:"+stamp(bk.CheckOut))
		writeLine(&b, "SUMMARY:"+Escape(bk.GuestName)+" - Direct Booking")
		writeLine(&b, "DESCRIPTION:"+description(bk))
		writeLine(&b, "LOCATION:"+Escape(bk.PropertyName))
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	return []byte(b.String())
}

// Escape applies RFC 5545 TEXT escaping: backslash, semicolon, comma, and
// newline would otherwise break the line-oriented format.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case ';':
			b.WriteString(`\;`)
		case ',':
			b.WriteString(`\,`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			// bare CR has no meaning in TEXT; drop it
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func description(bk booking.Booking) string {
	fields := []string{
		"Guest: " + Escape(bk.GuestName),
		"Email: " + Escape(bk.Email),
		"Phone: " + Escape(bk.Phone),
		fmt.Sprintf("Guests: %d", bk.Guests),
		fmt.Sprintf("Total: $%d", bk.Total),
		"Payment ID: " + Escape(bk.PaymentID),
		"Source: HRZN Website",
	}
	return strings.Join(fields, `\n`)
}

// stamp renders an ISO date as a UTC basic-format timestamp at midnight.
func stamp(isoDate string) string {
	t, err := time.Parse(booking.ISODate, isoDate)
	if err != nil {
		// Stored dates are validated at reconciliation; an unparseable one
		// still must not break the whole feed.
		return "19700101T000000Z"
	}
	return t.UTC().Format(stampLayout)
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\r\n")
}
