package ical

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"eventplanner/internal/domain"
)

const defaultProductID = "-//eventplanner//scheduling API//EN"

// Feed renders events as an iCalendar document.
type Feed struct {
	ProductID string
	// UIDDomain is appended to event ids to build VEVENT UIDs.
	UIDDomain string
}

func NewFeed() *Feed {
	return &Feed{ProductID: defaultProductID, UIDDomain: "eventplanner"}
}

// Encode serializes events into a VCALENDAR with one VEVENT per event.
// Instants are written in UTC; the event's timezone label goes in the description.
func (f *Feed) Encode(events []*domain.EventView, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(f.ProductID)

	for _, e := range events {
		vevent := cal.AddEvent(e.ID + "@" + f.UIDDomain)
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetCreatedTime(e.CreatedAt.UTC())
		vevent.SetModifiedAt(e.UpdatedAt.UTC())
		vevent.SetStartAt(e.StartDateTime.UTC())
		vevent.SetEndAt(e.EndDateTime.UTC())
		vevent.SetSummary(summary(e))
		vevent.SetDescription("Timezone: " + e.Timezone)
	}
	return cal.Serialize()
}

func summary(e *domain.EventView) string {
	names := e.ProfileNames()
	if len(names) == 0 {
		return "Event"
	}
	return strings.Join(names, ", ")
}
