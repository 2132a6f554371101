package pointcloud

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/percept/utils"
)

// hashGrid is the uniform spatial hash index every neighborhood operation is
// built on. Points are laid out as a permutation sorted by linearized cell
// key; an open-addressed table maps each occupied cell to the contiguous slice
// of the permutation holding exactly that cell's points.
//
// The grid is transient: built at the start of an operation, consumed by its
// kernels, dropped at operation end.
type hashGrid struct {
	origin   r3.Vector
	cellSide float64
	// cell counts per axis; coordinates outside [0, cells[a]) are empty by
	// definition so stencil lookups never alias through the linearization.
	cells [3]int32

	sortedIndices []int32
	sortedKeys    []uint64
	table         []gridEntry
	mask          uint64
}

type gridEntry struct {
	key   uint64
	first int32
	count int32
}

const emptySlot = int32(-1)

// buildHashGrid indexes the points of a cloud on a grid of the given cell side
// anchored at origin and spanning extent. It refuses grids whose cell
// coordinates would overflow a signed 32-bit int along any axis.
func buildHashGrid(points []Point, origin r3.Vector, cellSide float64, extent r3.Vector) (*hashGrid, error) {
	if cellSide <= 0 {
		return nil, errors.Errorf("cell side must be positive, got %v", cellSide)
	}
	var cells [3]int32
	for a, span := range []float64{extent.X, extent.Y, extent.Z} {
		// one past the floor so a point exactly at origin+extent stays in grid
		n := math.Floor(span/cellSide) + 1
		if n > float64(math.MaxInt32) {
			return nil, errors.Errorf("grid of cell side %v would overflow cell coordinates (extent %v)", cellSide, span)
		}
		if n < 1 {
			n = 1
		}
		cells[a] = int32(n)
	}
	if int64(cells[0])*int64(cells[1]) > math.MaxInt64/int64(cells[2]) {
		return nil, errors.Errorf("grid of cell side %v has too many cells (%v x %v x %v)", cellSide, cells[0], cells[1], cells[2])
	}

	n := len(points)
	tableSize := nextPowerOfTwo(uint64(2 * n))
	g := &hashGrid{
		origin:        origin,
		cellSide:      cellSide,
		cells:         cells,
		sortedIndices: make([]int32, n),
		sortedKeys:    make([]uint64, n),
		table:         make([]gridEntry, tableSize),
		mask:          tableSize - 1,
	}
	for i := range g.table {
		g.table[i].first = emptySlot
	}
	if n == 0 {
		return g, nil
	}

	keys := make([]uint64, n)
	utils.ParallelForEachPoint(n, func(i int) {
		ix, iy, iz := g.cellCoord(points[i].Position)
		key, ok := g.linearKey(ix, iy, iz)
		if !ok {
			// points are inside [origin, origin+extent] by construction
			key = 0
		}
		keys[i] = key
		g.sortedIndices[i] = int32(i)
	})
	sort.Slice(g.sortedIndices, func(a, b int) bool {
		ka, kb := keys[g.sortedIndices[a]], keys[g.sortedIndices[b]]
		if ka != kb {
			return ka < kb
		}
		return g.sortedIndices[a] < g.sortedIndices[b]
	})
	for i, idx := range g.sortedIndices {
		g.sortedKeys[i] = keys[idx]
	}

	// scan sorted keys into per-cell (first, count) table entries
	start := 0
	for i := 1; i <= n; i++ {
		if i == n || g.sortedKeys[i] != g.sortedKeys[start] {
			g.insert(g.sortedKeys[start], int32(start), int32(i-start))
			start = i
		}
	}
	return g, nil
}

func nextPowerOfTwo(v uint64) uint64 {
	if v < 2 {
		return 2
	}
	p := uint64(1)
	for p < v {
		p <<= 1
	}
	return p
}

// hashKey mixes a linearized cell key into a table slot.
func (g *hashGrid) hashKey(key uint64) uint64 {
	// 64-bit finalizer from MurmurHash3
	key ^= key >> 33
	key *= 0xff51afd7ed558ccd
	key ^= key >> 33
	key *= 0xc4ceb9fe1a85ec53
	key ^= key >> 33
	return key & g.mask
}

func (g *hashGrid) insert(key uint64, first, count int32) {
	slot := g.hashKey(key)
	for g.table[slot].first != emptySlot {
		slot = (slot + 1) & g.mask
	}
	g.table[slot] = gridEntry{key: key, first: first, count: count}
}

// cellCoord maps a position to integer cell coordinates relative to origin.
func (g *hashGrid) cellCoord(pos r3.Vector) (int32, int32, int32) {
	return int32(math.Floor((pos.X - g.origin.X) / g.cellSide)),
		int32(math.Floor((pos.Y - g.origin.Y) / g.cellSide)),
		int32(math.Floor((pos.Z - g.origin.Z) / g.cellSide))
}

// linearKey linearizes in-range cell coordinates; the second return is false
// for coordinates outside the grid.
func (g *hashGrid) linearKey(ix, iy, iz int32) (uint64, bool) {
	if ix < 0 || iy < 0 || iz < 0 || ix >= g.cells[0] || iy >= g.cells[1] || iz >= g.cells[2] {
		return 0, false
	}
	return (uint64(ix)*uint64(g.cells[1]) + uint64(iy)) * uint64(g.cells[2]) + uint64(iz), true
}

// cellSlice returns the slice of the sorted permutation holding the points of
// the given cell, or an empty slice when the cell is unoccupied.
func (g *hashGrid) cellSlice(ix, iy, iz int32) []int32 {
	key, ok := g.linearKey(ix, iy, iz)
	if !ok {
		return nil
	}
	slot := g.hashKey(key)
	for {
		entry := g.table[slot]
		if entry.first == emptySlot {
			return nil
		}
		if entry.key == key {
			return g.sortedIndices[entry.first : entry.first+entry.count]
		}
		slot = (slot + 1) & g.mask
	}
}

// forEachNeighbor calls fn for every point of points within radius of pos,
// enumerated from the 27-cell stencil around pos's cell. The stencil is a
// conservative superset of the ball of radius ≤ cellSide.
func (g *hashGrid) forEachNeighbor(pos r3.Vector, radiusSq float64, points []Point, fn func(j int32, distSq float64)) {
	cx, cy, cz := g.cellCoord(pos)
	for ix := cx - 1; ix <= cx+1; ix++ {
		for iy := cy - 1; iy <= cy+1; iy++ {
			for iz := cz - 1; iz <= cz+1; iz++ {
				for _, j := range g.cellSlice(ix, iy, iz) {
					d := points[j].Position.Sub(pos)
					distSq := d.Norm2()
					if distSq <= radiusSq {
						fn(j, distSq)
					}
				}
			}
		}
	}
}

// gridOverCloud derives the grid every radius operation shares: the cell side
// is a function of the operation's radius and the origin is padded below the
// cloud's min bound so the 27-cell stencil of any point stays inside the grid.
func gridOverCloud(cloud *PointCloud, cellSide, padding float64) (*hashGrid, error) {
	min, err := cloud.MinBound()
	if err != nil {
		return nil, err
	}
	max, err := cloud.MaxBound()
	if err != nil {
		return nil, err
	}
	origin := min.Sub(r3.Vector{X: padding, Y: padding, Z: padding})
	extent := max.Add(r3.Vector{X: padding, Y: padding, Z: padding}).Sub(origin)
	return buildHashGrid(cloud.points, origin, cellSide, extent)
}
