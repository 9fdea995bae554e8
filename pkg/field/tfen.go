package field

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTFEN is wrapped by every TFEN decoding error.
var ErrTFEN = errors.New("invalid tfen")

// TFEN ("tile FEN") is a compact, deterministic text form of a Field:
//
//	WxH:turn:final/points/states/ally/enemy
//
// points holds one ';'-separated row per y, each a ','-separated list of x
// values. states holds one ';'-separated row per y using '.' neutral,
// 'a'/'e' region and 'A'/'E' wall. ally and enemy list agents by id as
// "x.y", or "-" when unplaced.

var stateToChar = map[State]byte{
	NeutralState:      '.',
	PositionOf(Ally):  'a',
	PositionOf(Enemy): 'e',
	WallOf(Ally):      'A',
	WallOf(Enemy):     'E',
}

var charToState = map[byte]State{
	'.': NeutralState,
	'a': PositionOf(Ally),
	'e': PositionOf(Enemy),
	'A': WallOf(Ally),
	'E': WallOf(Enemy),
}

// EncodeTFEN serializes f.
func EncodeTFEN(f *Field) string {
	var b strings.Builder
	b.Grow(f.Width() * f.Height() * 4)
	fmt.Fprintf(&b, "%dx%d:%d:%d/", f.Width(), f.Height(), f.nowTurn, f.finalTurn)
	for y := 0; y < f.Height(); y++ {
		if y > 0 {
			b.WriteByte(';')
		}
		for x := 0; x < f.Width(); x++ {
			if x > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(f.tiles[x][y].Point)))
		}
	}
	b.WriteByte('/')
	for y := 0; y < f.Height(); y++ {
		if y > 0 {
			b.WriteByte(';')
		}
		for x := 0; x < f.Width(); x++ {
			b.WriteByte(stateToChar[f.tiles[x][y].State])
		}
	}
	for _, s := range Sides() {
		b.WriteByte('/')
		for id, a := range f.agents[s.Index()] {
			if id > 0 {
				b.WriteByte(',')
			}
			if !a.placed {
				b.WriteByte('-')
				continue
			}
			fmt.Fprintf(&b, "%d.%d", a.pos.X, a.pos.Y)
		}
	}
	return b.String()
}

// DecodeTFEN parses a TFEN string. Scores are recomputed from the decoded
// tiles; region states are taken as given.
func DecodeTFEN(s string) (*Field, error) {
	sections := strings.Split(s, "/")
	if len(sections) != 5 {
		return nil, fmt.Errorf("%w: expected 5 sections, got %d", ErrTFEN, len(sections))
	}
	w, h, now, final, err := decodeHeader(sections[0])
	if err != nil {
		return nil, err
	}
	ally := splitAgents(sections[3])
	enemy := splitAgents(sections[4])
	if len(ally) != len(enemy) {
		return nil, fmt.Errorf("%w: agent counts differ (%d vs %d)", ErrTFEN, len(ally), len(enemy))
	}
	f := New(w, h, len(ally), final)
	f.nowTurn = now

	rows := strings.Split(sections[1], ";")
	if len(rows) != h {
		return nil, fmt.Errorf("%w: %d point rows, want %d", ErrTFEN, len(rows), h)
	}
	for y, row := range rows {
		vals := strings.Split(row, ",")
		if len(vals) != w {
			return nil, fmt.Errorf("%w: point row %d has %d values, want %d", ErrTFEN, y, len(vals), w)
		}
		for x, v := range vals {
			n, err := strconv.ParseInt(v, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: point (%d,%d): %v", ErrTFEN, x, y, err)
			}
			f.tiles[x][y].Point = int8(n)
		}
	}

	rows = strings.Split(sections[2], ";")
	if len(rows) != h {
		return nil, fmt.Errorf("%w: %d state rows, want %d", ErrTFEN, len(rows), h)
	}
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: state row %d has %d cells, want %d", ErrTFEN, y, len(row), w)
		}
		for x := 0; x < w; x++ {
			st, ok := charToState[row[x]]
			if !ok {
				return nil, fmt.Errorf("%w: unknown state %q at (%d,%d)", ErrTFEN, row[x], x, y)
			}
			f.tiles[x][y].State = st
		}
	}

	for _, side := range Sides() {
		list := ally
		if side == Enemy {
			list = enemy
		}
		for id, tok := range list {
			if tok == "-" {
				continue
			}
			p, err := decodePoint(tok)
			if err != nil {
				return nil, err
			}
			if !f.Inside(p) {
				return nil, fmt.Errorf("%w: %s agent %d off board at %s", ErrTFEN, side, id, tok)
			}
			if other, oid, taken := f.AgentAt(p); taken {
				return nil, fmt.Errorf("%w: %s agent %d shares %s with %s agent %d", ErrTFEN, side, id, tok, other, oid)
			}
			f.SetAgent(side, id, p, true)
		}
	}
	f.UpdateScore()
	return f, nil
}

func decodeHeader(s string) (w, h, now, final int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, 0, fmt.Errorf("%w: bad header %q", ErrTFEN, s)
	}
	dims := strings.Split(parts[0], "x")
	if len(dims) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("%w: bad size %q", ErrTFEN, parts[0])
	}
	nums := make([]int, 4)
	for i, tok := range []string{dims[0], dims[1], parts[1], parts[2]} {
		n, convErr := strconv.Atoi(tok)
		if convErr != nil || n < 0 {
			return 0, 0, 0, 0, fmt.Errorf("%w: bad header value %q", ErrTFEN, tok)
		}
		nums[i] = n
	}
	if nums[0] == 0 || nums[1] == 0 || nums[0] > 127 || nums[1] > 127 {
		return 0, 0, 0, 0, fmt.Errorf("%w: unsupported size %dx%d", ErrTFEN, nums[0], nums[1])
	}
	return nums[0], nums[1], nums[2], nums[3], nil
}

func splitAgents(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func decodePoint(tok string) (Point, error) {
	xy := strings.Split(tok, ".")
	if len(xy) != 2 {
		return Point{}, fmt.Errorf("%w: bad agent %q", ErrTFEN, tok)
	}
	x, err1 := strconv.ParseInt(xy[0], 10, 8)
	y, err2 := strconv.ParseInt(xy[1], 10, 8)
	if err1 != nil || err2 != nil {
		return Point{}, fmt.Errorf("%w: bad agent %q", ErrTFEN, tok)
	}
	return Point{X: int8(x), Y: int8(y)}, nil
}

// MustDecodeTFEN is DecodeTFEN for fixtures; it panics on error.
func MustDecodeTFEN(s string) *Field {
	f, err := DecodeTFEN(s)
	if err != nil {
		panic(err)
	}
	return f
}
