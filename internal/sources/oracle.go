package sources

import (
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/vision"
)

// parseOracleCounts reads a vision reply expecting the first key to be
// present and any further keys to be optional.
func parseOracleCounts(source, reply string, required string, optional ...string) (map[string]int, error) {
	return vision.ParseKeyValues(source, reply, []string{required}, optional)
}

// oracleDate pulls an ASOF=YYYY-MM-DD value out of a vision reply, if any.
func oracleDate(reply string) *string {
	if date, ok := vision.FindDate(reply, "ASOF"); ok {
		return &date
	}
	return nil
}
