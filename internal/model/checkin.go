package model

import "time"

// CheckInRecord is returned by a successful check-in.  It is never
// persisted locally: the remote backend is the system of record and this
// is only a projection of what was sent there.
//
// Fields:
//
//	ID        – opaque identifier assigned by this service.
//	Agent     – the person who checked in.
//	Location  – the place checked in to.
//	Seat      – seat number, nil for unseated places.
//	StartTime – UTC check-in time.
//	EndTime   – UTC time after which the backend auto checks out.
type CheckInRecord struct {
	ID        string    `json:"identifier"`
	Agent     Identity  `json:"agent"`
	Location  Place     `json:"location"`
	Seat      *int      `json:"seatNumber"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// GuestCheckInRecord is a check-in performed by a host on behalf of a
// guest.  EndTime is supplied by the host rather than derived from the
// auto-checkout window.
type GuestCheckInRecord struct {
	CheckInRecord
	Email string `json:"email"` // guest address
}

// CheckOutRecord is returned by a successful check-out.
type CheckOutRecord struct {
	ID       string   `json:"identifier"`
	Agent    Identity `json:"agent"`
	Location Place    `json:"location"`
	Seat     *int     `json:"seatNumber"`
}
