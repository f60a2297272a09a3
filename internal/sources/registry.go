package sources

import (
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// ManualSources lists cities whose numbers are entered by hand in the
// persisted dataset rather than collected. Runs never overwrite them; a
// default failure record is seeded only when the key is absent.
var ManualSources = []string{"stlouis"}

// ManualDefaultError is the error recorded for a manual source that has
// never been filled in.
const ManualDefaultError = "No manual data yet"

// All builds every automated source adapter in its fixed reporting order.
// The order is the dashboard's display order and is stable across runs.
func All(deps Deps) []dashboard.Source {
	return []dashboard.Source{
		Philadelphia(deps),
		Baltimore(deps),
		KansasCity(deps),
		Chicago(deps),
		WashingtonDC(deps),
		NewOrleans(deps),
		Memphis(deps),
		Milwaukee(deps),
		Louisville(deps),
	}
}
