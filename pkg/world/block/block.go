// Package block defines the closed set of block kinds stored in chunks.
package block

import "strings"

// Type identifies a block kind. The zero value is Air.
type Type uint8

const (
	Air Type = iota
	Grass
	Dirt
	Rock
	Brick
	Water
	Sand

	count
)

// NamePrefix is prepended to the lowercase tag to form a persisted block name.
const NamePrefix = "minecraft:"

var tags = [count]string{
	Air:   "air",
	Grass: "grass",
	Dirt:  "dirt",
	Rock:  "rock",
	Brick: "brick",
	Water: "water",
	Sand:  "sand",
}

var byName = func() map[string]Type {
	m := make(map[string]Type, len(tags))
	for i, tag := range tags {
		m[NamePrefix+tag] = Type(i)
	}
	return m
}()

// Values returns every block type in declaration order.
func Values() []Type {
	out := make([]Type, count)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

// Valid reports whether t is one of the declared block types.
func (t Type) Valid() bool { return t < count }

// String returns the lowercase tag, e.g. "grass".
func (t Type) String() string {
	if !t.Valid() {
		return tags[Air]
	}
	return tags[t]
}

// Name returns the persisted name, e.g. "minecraft:grass".
func (t Type) Name() string {
	return NamePrefix + t.String()
}

// IsLiquid reports whether the block is a fluid.
func (t Type) IsLiquid() bool { return t == Water }

// IsSolid reports whether the block is neither air nor liquid.
func (t Type) IsSolid() bool { return t.Valid() && t != Air && t != Water }

// FromName maps a persisted name back to its type. Unknown names map to Air.
func FromName(name string) Type {
	if t, ok := byName[strings.ToLower(name)]; ok {
		return t
	}
	return Air
}
