package field

// UpdateRegion recomputes region control. A non-wall tile belongs to the side
// whose walls enclose it in the smaller closed component; ties and tiles open
// to the board edge keep their previous state.
func (f *Field) UpdateRegion() {
	ally := f.regionSizes(Ally)
	enemy := f.regionSizes(Enemy)
	for x := range f.tiles {
		for y := range f.tiles[x] {
			if f.tiles[x][y].State.IsWall() {
				continue
			}
			switch {
			case ally[x][y] < enemy[x][y]:
				f.tiles[x][y].State = PositionOf(Ally)
			case ally[x][y] > enemy[x][y]:
				f.tiles[x][y].State = PositionOf(Enemy)
			}
		}
	}
}

// regionSizes flood-fills the complement of side's walls. Each tile gets the
// size of its component, or w*h when the component reaches the border. Wall
// tiles of side keep w*h.
func (f *Field) regionSizes(side Side) [][]int {
	w, h := f.Width(), f.Height()
	open := w * h
	comp := make([][]int, w)
	for x := range comp {
		comp[x] = make([]int, h)
		for y := range comp[x] {
			comp[x][y] = -1
		}
	}
	var sizes []int
	queue := make([]Point, 0, w*h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if comp[x][y] >= 0 || f.tiles[x][y].State.IsWallOf(side) {
				continue
			}
			id := len(sizes)
			comp[x][y] = id
			queue = append(queue[:0], Pt(x, y))
			count, escaped := 0, false
			for head := 0; head < len(queue); head++ {
				count++
				cur := queue[head]
				for _, d := range directions4 {
					nb := cur.Add(d)
					if !f.Inside(nb) {
						escaped = true
						continue
					}
					if comp[nb.X][nb.Y] >= 0 || f.tiles[nb.X][nb.Y].State.IsWallOf(side) {
						continue
					}
					comp[nb.X][nb.Y] = id
					queue = append(queue, nb)
				}
			}
			if escaped {
				sizes = append(sizes, open)
			} else {
				sizes = append(sizes, count)
			}
		}
	}
	out := make([][]int, w)
	for x := range out {
		out[x] = make([]int, h)
		for y := range out[x] {
			if c := comp[x][y]; c >= 0 {
				out[x][y] = sizes[c]
			} else {
				out[x][y] = open
			}
		}
	}
	return out
}
