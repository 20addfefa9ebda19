package router

import (
	"fmt"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/grid"
)

// ObstacleMode selects which grid fields a pad projection touches.
type ObstacleMode uint8

const (
	ToBase ObstacleMode = 1 << iota
	ToVia
	// ToViaForbidden excludes vias under through-hole pads. Surface-mount
	// pads never set the flag.
	ToViaForbidden
)

// Has reports whether every bit of f is set in m.
func (m ObstacleMode) Has(f ObstacleMode) bool { return m&f == f }

// ObstacleProjector paints pad obstacles into the grid.
type ObstacleProjector struct {
	Grid   *grid.CostGrid
	Board  *board.Board
	Mapper *Mapper
	Cost   float64

	// Relief is the mode used by WithRelieved.
	Relief ObstacleMode
}

// PadRect returns the grid rectangle covered by pad, rounded outward.
func (p *ObstacleProjector) PadRect(inst *board.Instance, pad *board.Pad) grid.Rect {
	w, h := board.PadRotatedSize(inst, pad)
	return p.Mapper.RectToGrid(board.PadPosition(inst, pad), w, h)
}

// PadLayers returns the grid layers pad occupies: every layer for
// through-hole pads, the placement layer for surface-mount pads.
func (p *ObstacleProjector) PadLayers(inst *board.Instance, pad *board.Pad) []int {
	return padLayers(p.Board, inst, pad)
}

func padLayers(b *board.Board, inst *board.Instance, pad *board.Pad) []int {
	if pad.Type == board.PadThroughHole {
		layers := make([]int, len(b.Layers))
		for i := range layers {
			layers[i] = i
		}
		return layers
	}
	if idx, ok := b.LayerIndex(inst.Layer); ok {
		return []int{idx}
	}
	return nil
}

// AddPad adds sign·Cost over the pad footprint on every layer it occupies
// and sets or clears the pad tag. With ToViaForbidden a positive sign sets
// the via exclusion of a through-hole pad and a negative sign clears it. It
// returns the number of cells touched per layer.
func (p *ObstacleProjector) AddPad(inst *board.Instance, pad *board.Pad, sign float64, mode ObstacleMode) int {
	n := p.addPadCost(inst, pad, sign, mode)
	rect := p.PadRect(inst, pad)
	for _, layer := range p.PadLayers(inst, pad) {
		p.Grid.MarkPad(rect, layer, sign > 0)
	}
	return n
}

// addPadCost is AddPad without touching the pad tag.
func (p *ObstacleProjector) addPadCost(inst *board.Instance, pad *board.Pad, sign float64, mode ObstacleMode) int {
	rect := p.PadRect(inst, pad)
	delta := sign * p.Cost
	n := 0
	for _, layer := range p.PadLayers(inst, pad) {
		if mode.Has(ToBase) || mode.Has(ToVia) {
			n = p.Grid.AddCostRect(delta, rect, layer, mode.Has(ToBase), mode.Has(ToVia))
		}
		if mode.Has(ToViaForbidden) && pad.Type == board.PadThroughHole {
			p.Grid.SetViaForbiddenRect(rect, layer, sign > 0)
		}
	}
	return n
}

// ProjectAll adds every pad of every instance with mode.
func (p *ObstacleProjector) ProjectAll(mode ObstacleMode) int {
	pads := 0
	for i := range p.Board.Instances {
		inst := &p.Board.Instances[i]
		for j := range inst.Pads {
			p.AddPad(inst, &inst.Pads[j], 1, mode)
			pads++
		}
	}
	return pads
}

// WithRelieved subtracts the obstacle cost of pins, runs fn, then puts the
// cost back. The restore is deferred so it also happens when fn panics.
// Pad tags are left in place.
func (p *ObstacleProjector) WithRelieved(pins []board.PinRef, fn func() error) error {
	type relieved struct {
		inst *board.Instance
		pad  *board.Pad
	}
	done := make([]relieved, 0, len(pins))
	defer func() {
		for i := len(done) - 1; i >= 0; i-- {
			p.addPadCost(done[i].inst, done[i].pad, 1, p.Relief)
		}
	}()
	for _, ref := range pins {
		inst, pad, err := p.Board.Pad(ref)
		if err != nil {
			return fmt.Errorf("relieve pin %d/%d: %w", ref.Instance, ref.Pad, err)
		}
		p.addPadCost(inst, pad, -1, p.Relief)
		done = append(done, relieved{inst, pad})
	}
	return fn()
}
