package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("UTC")
	if err != nil {
		panic(err)
	}
}

// all session-expiry arithmetic is done against one pinned location so
// a host and this process disagreeing on local time cannot shift
// expiry timestamps
func Now() time.Time {
	return time.Now().In(Location)
}
