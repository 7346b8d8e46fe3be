package campusqr

import (
	"net/url"
	"strconv"
)

// locationPath returns /location/{id}/{action} or, for seated requests,
// /location/{id}-{seat}/{action}.  The backend addresses seats as
// sub-locations.
func locationPath(locationID string, seat *int, action string) string {
	segment := locationID
	if seat != nil {
		segment += "-" + strconv.Itoa(*seat)
	}
	return "/location/" + url.PathEscape(segment) + "/" + action
}

func configPath(key string) string {
	return "/config/get?" + url.Values{"id": {key}}.Encode()
}

const (
	locationListPath  = "/location/list"
	activeCheckinPath = "/report/listActiveCheckins"
)
