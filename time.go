package bimjoin

import (
	"fmt"
	"time"
)

// Time exists to facilitate time parsing from the index Metadata table,
// which stores unixtime, while older hand-edited indexes have been seen
// carrying text timestamps instead.
type Time time.Time

func (t *Time) Scan(v interface{}) error {
	switch which := v.(type) {
	case int64:
		*t = Time(time.Unix(which, 0))
		return nil
	case int:
		*t = Time(time.Unix(int64(which), 0))
		return nil
	case []byte:
		vt, err := time.Parse("2006-01-02 15:04:05", string(which))
		if err != nil {
			return err
		}
		*t = Time(vt)
		return nil
	}

	return fmt.Errorf("No appropriate type could be found to decode %v", v)
}
