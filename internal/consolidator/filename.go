package consolidator

import (
	"regexp"

	"github.com/nconklindev/tally/internal/types"
)

var datePattern = regexp.MustCompile(`AvanceVentasINTI\.(\d{4})\.(\d{2})\.(\d{2})\.`)

// DecodeFilename extracts the year, month and day groups from a name such as
// AvanceVentasINTI.2024.01.15.sales.xlsx. Names that do not match yield an
// empty tag; this is never an error.
func DecodeFilename(name string) types.DateTag {
	m := datePattern.FindStringSubmatch(name)
	if m == nil {
		return types.DateTag{}
	}
	return types.DateTag{Year: m[1], Month: m[2], Day: m[3]}
}
