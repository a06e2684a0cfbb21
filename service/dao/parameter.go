package dao

// Parameter filters List by an entity field name such as Role or State. An
// entity matches when its field equals any of Values; a parameter without
// values matches nothing.
type Parameter struct {
	Name   string
	Values []string
}

func NewParameter(name string, values ...string) *Parameter {
	return &Parameter{Name: name, Values: values}
}

// Matches reports whether value is one of the parameter values.
func (p *Parameter) Matches(value string) bool {
	for _, candidate := range p.Values {
		if candidate == value {
			return true
		}
	}
	return false
}
