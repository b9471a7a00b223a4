package mesh

import "github.com/go-gl/mathgl/mgl32"

// Direction is one of the six axis-aligned face directions.
type Direction uint8

const (
	Up    Direction = iota // +Y
	Down                   // -Y
	North                  // -Z
	South                  // +Z
	East                   // +X
	West                   // -X
)

// Directions lists every face direction in meshing order.
var Directions = [...]Direction{Up, Down, North, South, East, West}

var directionNames = [...]string{"up", "down", "north", "south", "east", "west"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}

// Offset returns the unit step toward the neighbor a face looks at.
func (d Direction) Offset() (dx, dy, dz int) {
	switch d {
	case Up:
		return 0, 1, 0
	case Down:
		return 0, -1, 0
	case North:
		return 0, 0, -1
	case South:
		return 0, 0, 1
	case East:
		return 1, 0, 0
	default:
		return -1, 0, 0
	}
}

// Normal returns the outward unit normal.
func (d Direction) Normal() mgl32.Vec3 {
	dx, dy, dz := d.Offset()
	return mgl32.Vec3{float32(dx), float32(dy), float32(dz)}
}

// toXYZ maps mask coordinates (u, v) on layer w to section coordinates.
// Up/Down scan x then z, North/South x then y, East/West z then y.
func (d Direction) toXYZ(u, v, w int) (x, y, z int) {
	switch d {
	case Up, Down:
		return u, w, v
	case North, South:
		return u, v, w
	default:
		return w, v, u
	}
}
