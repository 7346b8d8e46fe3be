package service

import "github.com/iliyamo/location-checkin/internal/model"

// ValidateSeat checks a requested seat against the place's capacity.  A
// seated place needs a seat in [1, MaxCapacity]; an unseated place must not
// get one.  Rules are evaluated in order and the first match wins.
func ValidateSeat(place model.Place, seat *int) error {
	switch {
	case seat == nil && place.Seated():
		return ErrSeatRequired
	case seat != nil && !place.Seated():
		return ErrSeatNotAllowed
	case seat != nil && *seat > *place.MaxCapacity:
		return ErrSeatExceeds
	case seat != nil && *seat < 1:
		return ErrSeatTooLow
	}
	return nil
}
