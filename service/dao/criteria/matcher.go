package criteria

import (
	"github.com/viant/cogniflow/service/dao"
)

// Match reports whether an entity described by fields satisfies every
// parameter naming one of its fields. Unknown parameters are ignored.
func Match(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		value, ok := fields[parameter.Name]
		if !ok {
			continue
		}
		if !parameter.Matches(value) {
			return false
		}
	}
	return true
}
