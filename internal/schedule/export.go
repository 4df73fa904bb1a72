package schedule

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"zolver/internal/models"
)

const (
	googleCalendarBase = "https://calendar.google.com/calendar/render"

	// icsTimeLayout is the compact UTC basic format both encoders share.
	icsTimeLayout = "20060102T150405Z"
)

// GoogleCalendarLink builds the add-to-calendar deep link for one
// appointment. Parameter order matters to some consumers, so the query
// string is assembled by hand instead of through url.Values.
func GoogleCalendarLink(a *models.Appointment) string {
	dates := a.Start.UTC().Format(icsTimeLayout) + "/" + a.End.UTC().Format(icsTimeLayout)

	var b strings.Builder
	b.WriteString(googleCalendarBase)
	b.WriteString("?action=TEMPLATE")
	b.WriteString("&text=")
	b.WriteString(url.QueryEscape(a.Title))
	b.WriteString("&dates=")
	b.WriteString(url.QueryEscape(dates))
	b.WriteString("&details=")
	b.WriteString(url.QueryEscape(a.Description))
	b.WriteString("&location=")
	b.WriteString(url.QueryEscape(a.Location))
	return b.String()
}

// ICalendar serializes one appointment as a minimal RFC 5545 document.
// stamp becomes DTSTAMP; everything else is derived from the appointment,
// so repeated exports with the same stamp are byte-identical.
func ICalendar(a *models.Appointment, stamp time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//zolver//scheduling//EN",
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:%s@%s", a.ID, models.ICalendarUIDDomain),
		"DTSTAMP:" + stamp.UTC().Format(icsTimeLayout),
		"DTSTART:" + a.Start.UTC().Format(icsTimeLayout),
		"DTEND:" + a.End.UTC().Format(icsTimeLayout),
		"SUMMARY:" + escapeText(a.Title),
	}
	if a.Description != "" {
		lines = append(lines, "DESCRIPTION:"+escapeText(a.Description))
	}
	if a.Location != "" {
		lines = append(lines, "LOCATION:"+escapeText(a.Location))
	}
	lines = append(lines,
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	)
	return strings.Join(lines, "\r\n") + "\r\n"
}

// ICSFilename derives a safe download name from the appointment title.
func ICSFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		name = "appointment"
	}
	return name + ".ics"
}

// escapeText applies RFC 5545 TEXT escaping. Backslash goes first so the
// escapes it introduces are not re-escaped.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
