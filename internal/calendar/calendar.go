// Package calendar renders watering and task due dates as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/vbonduro/plantcare/internal/domain"
	"github.com/vbonduro/plantcare/internal/schedule"
)

const (
	crlf     = "\r\n"
	prodID   = "-//Plant Tracker//EN"
	uidHost  = "plant-tracker"
	dtLayout = "20060102T150405Z"
)

type Event struct {
	UID         string
	Start       time.Time
	Summary     string
	Description string
}

// Events lists the watering event and one event per resolvable task for each
// plant. Tasks without a type or cadence are omitted.
func Events(plants []*domain.Plant, s domain.Settings, now time.Time) []Event {
	var events []Event
	for _, p := range plants {
		name := p.Name
		if name == "" {
			name = "plant"
		}
		events = append(events, Event{
			UID:         fmt.Sprintf("%s-water@%s", uidPart(p.ID), uidHost),
			Start:       schedule.NextDue(p, s, now),
			Summary:     schedule.Title("water", name),
			Description: TaxonLine(p),
		})
		for i, t := range p.Tasks {
			due, ok := schedule.TaskDue(p, i, now)
			if !ok {
				continue
			}
			events = append(events, Event{
				UID:         fmt.Sprintf("%s-%s-%d@%s", uidPart(p.ID), uidPart(t.Type), i, uidHost),
				Start:       due,
				Summary:     schedule.Title(t.Type, p.Name),
				Description: fmt.Sprintf("Every %dd", t.EveryDays),
			})
		}
	}
	return events
}

// uidPart lowercases s and maps anything outside [a-z0-9-] to '-'.
func uidPart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, s)
}

// Build renders the feed for plants. Lines end in CRLF.
func Build(plants []*domain.Plant, s domain.Settings, now time.Time) string {
	var b strings.Builder
	line := func(parts ...string) {
		for _, p := range parts {
			b.WriteString(p)
		}
		b.WriteString(crlf)
	}
	stamp := now.UTC().Format(dtLayout)

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:", prodID)
	for _, ev := range Events(plants, s, now) {
		line("BEGIN:VEVENT")
		line("UID:", ev.UID)
		line("DTSTAMP:", stamp)
		line("DTSTART;VALUE=DATE:", ev.Start.Format("20060102"))
		line("SUMMARY:", Escape(ev.Summary))
		if ev.Description != "" {
			line("DESCRIPTION:", Escape(ev.Description))
		}
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return b.String()
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`;`, `\;`,
	`,`, `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// Escape quotes iCalendar TEXT reserved characters.
func Escape(s string) string {
	return escaper.Replace(s)
}

// TaxonLine joins family, binomial and cultivar, e.g.
// "Araceae • Monstera deliciosa • ‘Thai Constellation’".
func TaxonLine(p *domain.Plant) string {
	var parts []string
	if p.Family != "" {
		parts = append(parts, p.Family)
	}
	switch {
	case p.Genus != "":
		parts = append(parts, strings.TrimSpace(p.Genus+" "+p.Species))
	case p.Species != "":
		parts = append(parts, p.Species)
	}
	if p.Cultivar != "" {
		parts = append(parts, "‘"+p.Cultivar+"’")
	}
	return strings.Join(parts, " • ")
}
