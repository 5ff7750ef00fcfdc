package acta

import (
	"strings"
	"time"
)

// IDPrefix starts every record identifier.
const IDPrefix = "AX-"

// LocalTimeLayout formats Visit.LocalTime.
const LocalTimeLayout = "2006-01-02 15:04:05"

// NewID derives a record identifier from its creation instant: the prefix,
// the UTC date and time, and milliseconds. Identifiers sort by creation
// time. Two records created in the same millisecond collide; the store
// reports that as an error rather than overwriting.
func NewID(t time.Time) string {
	stamp := t.UTC().Format("20060102150405.000")
	return IDPrefix + strings.Replace(stamp, ".", "", 1)
}

// Stamp fills the visit timestamps from t. loc selects the zone used for
// the local timestamp; nil means time.Local.
func Stamp(v *Visit, t time.Time, loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	v.LocalTime = t.In(loc).Format(LocalTimeLayout)
	v.UTCTime = t.UTC().Format("2006-01-02T15:04:05.000Z")
}
