package domain

import "time"

// EventSnapshot is the unit of state moved between tiers: an event and
// every ticket issued against it, ordered by TicketID.
type EventSnapshot struct {
	Event   Event
	Tickets []Ticket
}

// SameSnapshot reports whether a and b describe identical state. Time
// fields compare by instant, not by representation.
func SameSnapshot(a, b *EventSnapshot) bool {
	if !sameEvent(a.Event, b.Event) || len(a.Tickets) != len(b.Tickets) {
		return false
	}
	byAddr := make(map[Address]Ticket, len(b.Tickets))
	for _, t := range b.Tickets {
		byAddr[t.Address] = t
	}
	for _, t := range a.Tickets {
		other, ok := byAddr[t.Address]
		if !ok || !sameTicket(t, other) {
			return false
		}
	}
	return true
}

func sameEvent(a, b Event) bool {
	if !a.StartsAt.Equal(b.StartsAt) || !a.EndsAt.Equal(b.EndsAt) {
		return false
	}
	a.StartsAt, a.EndsAt, b.StartsAt, b.EndsAt = time.Time{}, time.Time{}, time.Time{}, time.Time{}
	return a == b
}

func sameTicket(a, b Ticket) bool {
	if !a.PurchaseTime.Equal(b.PurchaseTime) {
		return false
	}
	if (a.CheckInTime == nil) != (b.CheckInTime == nil) {
		return false
	}
	if a.CheckInTime != nil && !a.CheckInTime.Equal(*b.CheckInTime) {
		return false
	}
	a.PurchaseTime, b.PurchaseTime = time.Time{}, time.Time{}
	a.CheckInTime, b.CheckInTime = nil, nil
	return a == b
}
