package geom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// CellKey identifies one cell of an Index: floor(position / cellSize) along
// each axis.
type CellKey [3]int32

// Index is a uniform grid which maps cells to the ids of the points stored in
// them. It accelerates "what is near this point?" queries: a query with a
// radius no larger than the cell size touches at most the 3x3x3 block of cells
// around the query point.
//
// Indexes are owned by a single run and should not be shared between
// goroutines while they are being written to.
type Index struct {
	cellSize, invCell float64
	cells             map[CellKey][]int
	n                 int
}

// NewIndex returns an empty Index with the given cell size. Callers usually
// pass twice the largest particle radius they expect to insert.
func NewIndex(cellSize float64) *Index {
	idx := &Index{}
	idx.Init(cellSize)
	return idx
}

// Init resets the Index to an empty grid with the given cell size.
func (idx *Index) Init(cellSize float64) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		panic("geom: Index cell size must be positive and finite.")
	}
	idx.cellSize = cellSize
	idx.invCell = 1 / cellSize
	idx.cells = make(map[CellKey][]int)
	idx.n = 0
}

// CellSize returns the width of a grid cell.
func (idx *Index) CellSize() float64 { return idx.cellSize }

// Len returns the number of stored ids.
func (idx *Index) Len() int { return idx.n }

// Key returns the cell containing p.
func (idx *Index) Key(p r3.Vec) CellKey {
	return CellKey{idx.coord(p.X), idx.coord(p.Y), idx.coord(p.Z)}
}

func (idx *Index) coord(x float64) int32 {
	c := math.Floor(x * idx.invCell)
	// Far-away points all land in the outermost cells.
	if c > math.MaxInt32-1 {
		return math.MaxInt32 - 1
	} else if c < math.MinInt32+1 {
		return math.MinInt32 + 1
	}
	return int32(c)
}

// Insert adds id at position p. Amortized O(1).
func (idx *Index) Insert(id int, p r3.Vec) {
	k := idx.Key(p)
	idx.cells[k] = append(idx.cells[k], id)
	idx.n++
}

// Remove deletes id, which must have been inserted at p. It returns false if
// id was not found in p's cell.
func (idx *Index) Remove(id int, p r3.Vec) bool {
	k := idx.Key(p)
	ids := idx.cells[k]
	for i, x := range ids {
		if x != id {
			continue
		}
		copy(ids[i:], ids[i+1:])
		ids = ids[:len(ids)-1]
		if len(ids) == 0 {
			delete(idx.cells, k)
		} else {
			idx.cells[k] = ids
		}
		idx.n--
		return true
	}
	return false
}

// Each calls fn for every id stored in the cells within reach of p's cell,
// where reach = ceil(radius / cellSize). With reach <= 1 that is exactly the
// 27 surrounding cells. These are candidates: callers still need to check the
// actual distance. Iteration stops early if fn returns false.
//
// Cells are visited in a fixed order (dz, then dy, then dx, each ascending)
// and ids within a cell in insertion order, so the candidate sequence is
// deterministic.
func (idx *Index) Each(p r3.Vec, radius float64, fn func(id int) bool) {
	reach := int64(math.Ceil(radius * idx.invCell))
	if reach < 1 {
		reach = 1
	}
	c := idx.Key(p)

	side := float64(2*reach + 1)
	if side*side*side > 4*float64(len(idx.cells)) {
		// Cheaper to walk the occupied cells than the query box.
		idx.eachOccupied(c, reach, fn)
		return
	}

	for dz := -reach; dz <= reach; dz++ {
		for dy := -reach; dy <= reach; dy++ {
			for dx := -reach; dx <= reach; dx++ {
				k := CellKey{
					int32(int64(c[0]) + dx),
					int32(int64(c[1]) + dy),
					int32(int64(c[2]) + dz),
				}
				for _, id := range idx.cells[k] {
					if !fn(id) {
						return
					}
				}
			}
		}
	}
}

// eachOccupied handles very large queries. The map's iteration order is
// random, so ids are sorted before they are handed out.
func (idx *Index) eachOccupied(c CellKey, reach int64, fn func(id int) bool) {
	var ids []int
	for k, cell := range idx.cells {
		if absDiff(k[0], c[0]) > reach || absDiff(k[1], c[1]) > reach ||
			absDiff(k[2], c[2]) > reach {
			continue
		}
		ids = append(ids, cell...)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if !fn(id) {
			return
		}
	}
}

func absDiff(a, b int32) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		return -d
	}
	return d
}

// AppendNear appends the candidates for (p, radius) to buf and returns it.
func (idx *Index) AppendNear(buf []int, p r3.Vec, radius float64) []int {
	idx.Each(p, radius, func(id int) bool {
		buf = append(buf, id)
		return true
	})
	return buf
}

// QueryNear returns the candidate ids within radius of p. See Each.
func (idx *Index) QueryNear(p r3.Vec, radius float64) []int {
	return idx.AppendNear(nil, p, radius)
}
