package model

// Place describes a physical location people can check in to.  Places are
// owned by the remote check-in backend; this service only ever sees
// read-only projections of them.  A nil MaxCapacity means the location has
// no numbered seats.
//
// Fields:
//
//	ID          – opaque location identifier assigned by the backend.
//	Name        – human readable name, used for search.
//	MaxCapacity – number of seats (1..MaxCapacity), nil when unseated.
type Place struct {
	ID          string `json:"identifier"`                      // location id
	Name        string `json:"name"`                            // display name
	MaxCapacity *int   `json:"maximumPhysicalAttendeeCapacity"` // seat count, nil when unseated
}

// Seated reports whether the place requires a seat number.
func (p Place) Seated() bool { return p.MaxCapacity != nil }
