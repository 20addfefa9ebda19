package grid

import (
	"container/heap"
	"fmt"
	"math"
)

// conn8 lists the eight in-plane neighbor offsets, clockwise from north.
var conn8 = [8][2]int{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}

// SearchStats describes the most recent search.
type SearchStats struct {
	Expanded int // cells finalized
	Pushed   int // frontier insertions, stale entries included
}

// LastSearch returns statistics of the most recent call to Search.
func (g *CostGrid) LastSearch() SearchStats { return g.stats }

// Search finds the cheapest connected path from any source to the nearest
// target under the active rules. It returns the path (source first, target
// last) and its accumulated cost.
//
// Sources and targets may overlap; an overlapping location yields a
// single-cell path of cost 0.
func (g *CostGrid) Search(sources, targets []Location) (Path, float64, error) {
	if len(sources) == 0 || len(targets) == 0 {
		return nil, 0, ErrEmptySet
	}
	goal := make(map[int]struct{}, len(targets))
	for _, t := range targets {
		if !g.Validate(t) {
			return nil, 0, fmt.Errorf("%w: target %v", ErrInvalidLocation, t)
		}
		goal[g.index(t)] = struct{}{}
	}
	for _, s := range sources {
		if !g.Validate(s) {
			return nil, 0, fmt.Errorf("%w: source %v", ErrInvalidLocation, s)
		}
	}

	s := searcher{g: g, epoch: g.nextEpoch()}
	for _, src := range sources {
		s.relax(g.index(src), -1, 0)
	}

	for s.pq.Len() > 0 {
		it := heap.Pop(&s.pq).(frontierItem)
		sc := &g.scratch[it.idx]
		if sc.closed || it.cost > sc.cost {
			continue
		}
		sc.closed = true
		g.stats.Expanded++

		if _, ok := goal[it.idx]; ok {
			g.stats.Pushed = s.pushed
			return s.reconstruct(it.idx), it.cost, nil
		}
		s.expandPlane(it.idx, it.cost)
		s.expandVias(it.idx, it.cost)
	}
	g.stats.Pushed = s.pushed
	return nil, 0, ErrNoPathFound
}

// nextEpoch starts a new search generation. On wrap-around the scratch layer
// is cleared so stale stamps cannot collide.
func (g *CostGrid) nextEpoch() uint32 {
	g.epoch++
	if g.epoch == 0 {
		for i := range g.scratch {
			g.scratch[i] = scratch{from: -1}
		}
		g.epoch = 1
	}
	g.stats = SearchStats{}
	return g.epoch
}

type searcher struct {
	g      *CostGrid
	epoch  uint32
	pq     frontier
	seq    uint64
	pushed int
}

func (s *searcher) relax(idx, from int, cost float64) {
	sc := &s.g.scratch[idx]
	if sc.epoch != s.epoch {
		sc.reset(s.epoch)
	}
	if sc.closed || cost >= sc.cost {
		return
	}
	sc.cost = cost
	sc.from = int32(from)
	s.seq++
	s.pushed++
	heap.Push(&s.pq, frontierItem{idx: idx, cost: cost, seq: s.seq})
}

func (s *searcher) expandPlane(idx int, cost float64) {
	g := s.g
	loc := g.location(idx)
	for _, d := range conn8 {
		nx, ny := loc.X+d[0], loc.Y+d[1]
		if nx < 0 || nx >= g.width || ny < 0 || ny >= g.height {
			continue
		}
		n := (loc.Layer*g.height+ny)*g.width + nx
		if s.closed(n) {
			continue
		}
		tc := g.traceCost(n)
		if g.blocked(tc) {
			continue
		}
		step := 1.0
		if d[0] != 0 && d[1] != 0 {
			step = math.Sqrt2
		}
		s.relax(n, idx, cost+step*(1+tc))
	}
}

// expandVias relaxes via hops to every other layer. A hop spans all layers
// in between, so walking outward stops at the first forbidden or blocked layer.
func (s *searcher) expandVias(idx int, cost float64) {
	g := s.g
	if g.layers < 2 || g.cells[idx].viaForbidden {
		return
	}
	here := g.viaCost(idx)
	if g.blocked(here) {
		return
	}
	plane := g.width * g.height
	layer := idx / plane
	for _, dir := range [2]int{1, -1} {
		acc := here
		for l := layer + dir; l >= 0 && l < g.layers; l += dir {
			n := idx + (l-layer)*plane
			if g.cells[n].viaForbidden {
				break
			}
			vc := g.viaCost(n)
			if g.blocked(vc) {
				break
			}
			acc += vc
			if s.closed(n) {
				continue
			}
			span := float64(abs(l - layer))
			s.relax(n, idx, cost+g.viaStep*span+acc)
		}
	}
}

func (s *searcher) closed(idx int) bool {
	sc := &s.g.scratch[idx]
	return sc.epoch == s.epoch && sc.closed
}

// reconstruct walks back-references from idx to a source. Via hops spanning
// several layers are expanded so every step moves one layer at most.
func (s *searcher) reconstruct(idx int) Path {
	g := s.g
	var rev []Location
	for i := idx; i >= 0; i = int(g.scratch[i].from) {
		rev = append(rev, g.location(i))
	}
	path := make(Path, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		loc := rev[i]
		if n := len(path); n > 0 && path[n-1].SameXY(loc) {
			prev := path[n-1]
			dir := 1
			if loc.Layer < prev.Layer {
				dir = -1
			}
			for l := prev.Layer + dir; l != loc.Layer; l += dir {
				path = append(path, Location{X: loc.X, Y: loc.Y, Layer: l})
			}
		}
		path = append(path, loc)
	}
	return path
}

// frontierItem is one lazy priority-queue entry; seq breaks cost ties by
// discovery order.
type frontierItem struct {
	idx  int
	cost float64
	seq  uint64
}

type frontier []frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(frontierItem)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	it := old[n-1]
	*f = old[:n-1]
	return it
}
