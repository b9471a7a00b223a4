package block

// Info describes a registered block kind.
type Info struct {
	ID          int
	Type        Type
	Name        string
	DisplayName string
	Transparent bool
}

// Registry looks up block kinds by numeric id or persisted name.
type Registry interface {
	ByID(id int) (Info, bool)
	ByName(name string) (Info, bool)
	All() []Info
}

type registry struct {
	byID   []Info
	byName map[string]Info
}

var defaultRegistry = newRegistry()

// Default returns the built-in registry covering every Type.
func Default() Registry { return defaultRegistry }

func newRegistry() *registry {
	r := &registry{byName: make(map[string]Info, count)}
	for _, t := range Values() {
		info := Info{
			ID:          int(t),
			Type:        t,
			Name:        t.Name(),
			DisplayName: displayName(t),
			Transparent: t == Air || t == Water,
		}
		r.byID = append(r.byID, info)
		r.byName[info.Name] = info
	}
	return r
}

func (r *registry) ByID(id int) (Info, bool) {
	if id < 0 || id >= len(r.byID) {
		return Info{}, false
	}
	return r.byID[id], true
}

func (r *registry) ByName(name string) (Info, bool) {
	info, ok := r.byName[name]
	return info, ok
}

func (r *registry) All() []Info {
	out := make([]Info, len(r.byID))
	copy(out, r.byID)
	return out
}

func displayName(t Type) string {
	s := t.String()
	return string(s[0]-'a'+'A') + s[1:]
}
