package texture

import "fmt"

// Region is a rectangle of texels inside an atlas.
type Region struct {
	X, Y, Width, Height int
}

// IsValid returns true if the region has valid dimensions.
func (r Region) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

// String returns a string representation of the region.
func (r Region) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// shelf represents a horizontal shelf in the shelf-packing algorithm.
type shelf struct {
	y      int // Top Y coordinate of this shelf
	height int // Height of this shelf, fixed by its first item
	nextX  int // Next available X position on this shelf
}

// ShelfAllocator implements shelf packing: rectangles are placed left to
// right on horizontal shelves, and a new shelf opens below the last one
// when no existing shelf fits.
//
// Allocations are never freed. Grow enlarges the area in place, so every
// region handed out stays valid.
type ShelfAllocator struct {
	width   int
	height  int
	padding int
	shelves []shelf

	allocCount int
	usedArea   int
}

// NewShelfAllocator creates an allocator for a width x height area.
func NewShelfAllocator(width, height, padding int) *ShelfAllocator {
	if padding < 0 {
		padding = 0
	}
	return &ShelfAllocator{width: width, height: height, padding: padding}
}

// Allocate finds space for a rectangle of the given size.
// Returns an invalid region if the rectangle does not fit.
func (a *ShelfAllocator) Allocate(width, height int) Region {
	if width <= 0 || height <= 0 {
		return Region{}
	}
	pw := width + a.padding
	ph := height + a.padding
	if pw > a.width || ph > a.height {
		return Region{}
	}

	best := -1
	for i := range a.shelves {
		s := &a.shelves[i]
		if s.nextX+pw > a.width || ph > s.height {
			continue
		}
		// Prefer the shelf that wastes the least height.
		if best < 0 || s.height < a.shelves[best].height {
			best = i
		}
	}
	if best >= 0 {
		s := &a.shelves[best]
		r := Region{X: s.nextX, Y: s.y, Width: width, Height: height}
		s.nextX += pw
		a.record(width, height)
		return r
	}

	y := 0
	if n := len(a.shelves); n > 0 {
		y = a.shelves[n-1].y + a.shelves[n-1].height
	}
	if y+ph > a.height {
		return Region{}
	}
	a.shelves = append(a.shelves, shelf{y: y, height: ph, nextX: pw})
	a.record(width, height)
	return Region{X: 0, Y: y, Width: width, Height: height}
}

func (a *ShelfAllocator) record(width, height int) {
	a.allocCount++
	a.usedArea += width * height
}

// Grow enlarges the allocator area. Existing regions keep their position;
// shelves extend to the new width and new shelves fit in the new height.
// Shrinking is ignored.
func (a *ShelfAllocator) Grow(width, height int) {
	a.width = max(a.width, width)
	a.height = max(a.height, height)
}

// Size returns the allocator area.
func (a *ShelfAllocator) Size() (width, height int) {
	return a.width, a.height
}

// AllocCount returns the number of successful allocations.
func (a *ShelfAllocator) AllocCount() int { return a.allocCount }

// Utilization returns the fraction of area used (0.0 to 1.0).
func (a *ShelfAllocator) Utilization() float64 {
	total := a.width * a.height
	if total == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}
