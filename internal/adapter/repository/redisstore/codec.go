package redisstore

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

// encMode uses Core Deterministic Encoding, so equal records always encode
// to equal bytes. The optimistic commit relies on that when it compares
// what it read against what is stored.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("redisstore: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("redisstore: CBOR decoder initialization failed: " + err.Error())
	}
}

type eventRecord struct {
	Address     string `cbor:"1,keyasint"`
	Organizer   string `cbor:"2,keyasint"`
	Title       string `cbor:"3,keyasint"`
	Description string `cbor:"4,keyasint"`
	Price       uint64 `cbor:"5,keyasint"`
	Capacity    uint32 `cbor:"6,keyasint"`
	TicketsSold uint32 `cbor:"7,keyasint"`
	StartsAt    int64  `cbor:"8,keyasint"`
	EndsAt      int64  `cbor:"9,keyasint"`
	IsActive    bool   `cbor:"10,keyasint"`
}

type ticketRecord struct {
	Address      string `cbor:"1,keyasint"`
	Event        string `cbor:"2,keyasint"`
	Buyer        string `cbor:"3,keyasint"`
	TicketID     uint32 `cbor:"4,keyasint"`
	PurchaseTime int64  `cbor:"5,keyasint"`
	CheckInTime  *int64 `cbor:"6,keyasint,omitempty"`
	IsUsed       bool   `cbor:"7,keyasint"`
}

func encodeEvent(e *domain.Event) ([]byte, error) {
	return encMode.Marshal(eventRecord{
		Address:     e.Address.String(),
		Organizer:   e.Organizer.String(),
		Title:       e.Title,
		Description: e.Description,
		Price:       e.Price,
		Capacity:    e.Capacity,
		TicketsSold: e.TicketsSold,
		StartsAt:    e.StartsAt.UnixMicro(),
		EndsAt:      e.EndsAt.UnixMicro(),
		IsActive:    e.IsActive,
	})
}

func decodeEvent(data []byte) (*domain.Event, error) {
	var rec eventRecord
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	addr, err := domain.ParseAddress(rec.Address)
	if err != nil {
		return nil, err
	}
	organizer, err := uuid.Parse(rec.Organizer)
	if err != nil {
		return nil, err
	}
	return &domain.Event{
		Address:     addr,
		Organizer:   organizer,
		Title:       rec.Title,
		Description: rec.Description,
		Price:       rec.Price,
		Capacity:    rec.Capacity,
		TicketsSold: rec.TicketsSold,
		StartsAt:    time.UnixMicro(rec.StartsAt).UTC(),
		EndsAt:      time.UnixMicro(rec.EndsAt).UTC(),
		IsActive:    rec.IsActive,
	}, nil
}

func encodeTicket(t *domain.Ticket) ([]byte, error) {
	rec := ticketRecord{
		Address:      t.Address.String(),
		Event:        t.Event.String(),
		Buyer:        t.Buyer.String(),
		TicketID:     t.TicketID,
		PurchaseTime: t.PurchaseTime.UnixMicro(),
		IsUsed:       t.IsUsed,
	}
	if t.CheckInTime != nil {
		v := t.CheckInTime.UnixMicro()
		rec.CheckInTime = &v
	}
	return encMode.Marshal(rec)
}

func decodeTicket(data []byte) (*domain.Ticket, error) {
	var rec ticketRecord
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	addr, err := domain.ParseAddress(rec.Address)
	if err != nil {
		return nil, err
	}
	event, err := domain.ParseAddress(rec.Event)
	if err != nil {
		return nil, err
	}
	buyer, err := uuid.Parse(rec.Buyer)
	if err != nil {
		return nil, err
	}
	t := &domain.Ticket{
		Address:      addr,
		Event:        event,
		Buyer:        buyer,
		TicketID:     rec.TicketID,
		PurchaseTime: time.UnixMicro(rec.PurchaseTime).UTC(),
		IsUsed:       rec.IsUsed,
	}
	if rec.CheckInTime != nil {
		checkIn := time.UnixMicro(*rec.CheckInTime).UTC()
		t.CheckInTime = &checkIn
	}
	return t, nil
}
