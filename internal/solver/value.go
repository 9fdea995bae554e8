package solver

import "github.com/freeeve/territory/pkg/field"

// TilePoint is the immediate score swing of act for side, or false when the
// action is not a sensible target: moving or placing onto an enemy wall (it
// must be removed first), or removing anything but an enemy wall.
//
//   - Stay: 0
//   - neutral tile: its point
//   - enemy region: point + |point| (the enemy loses the region value)
//   - own region: point - |point|
//   - own wall: 0
//   - Remove of an enemy wall: its point, which the enemy loses
func TilePoint(f *field.Field, side field.Side, act field.Act) (int, bool) {
	if act.Kind == field.Stay {
		return 0, true
	}
	if !f.Inside(act.Target) {
		return 0, false
	}
	tile := f.Tile(act.Target)
	p := int(tile.Point)
	abs := p
	if abs < 0 {
		abs = -abs
	}
	if act.Kind == field.Remove {
		if tile.State.IsWallOf(side.Other()) {
			return p, true
		}
		return 0, false
	}
	switch {
	case tile.State.IsWallOf(side.Other()):
		return 0, false
	case tile.State.IsWallOf(side):
		return 0, true
	case tile.State.IsPositionOf(side.Other()):
		return p + abs, true
	case tile.State.IsPositionOf(side):
		return p - abs, true
	default:
		return p, true
	}
}
