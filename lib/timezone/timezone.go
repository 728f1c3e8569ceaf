package timezone

import "time"

// Location is Nepal Standard Time. the portal stamps filings in NPT so dates
// are always derived in it, whatever zone the host runs in.
var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Kathmandu")
	if err != nil {
		// hosts without tzdata
		Location = time.FixedZone("NPT", 5*60*60+45*60)
	}
}

func Now() time.Time {
	return time.Now().In(Location)
}
