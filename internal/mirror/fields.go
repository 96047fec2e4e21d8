package mirror

import (
	"armature/internal/ddata"
	"armature/internal/naming"
	"armature/internal/scene"
)

// swapTokens exchanges side tokens in every string field flagged
// MirrorTokens.
func swapTokens(rec *ddata.Record, conv naming.Convention) error {
	for _, f := range rec.Schema().Fields() {
		if !f.MirrorTokens || f.Kind != ddata.KindString {
			continue
		}
		value := rec.String(f.Name)
		if value == "" {
			continue
		}
		if err := rec.Set(f.Name, naming.SwapSide(value, conv)); err != nil {
			return err
		}
	}
	return nil
}

// mirrorMatrices reflects the matrix values the live object stores itself.
// Matrices driven by a connection already follow their mirrored driver.
func mirrorMatrices(rec *ddata.Record, obj *scene.Object) error {
	for _, f := range rec.Schema().Fields() {
		if f.Kind != ddata.KindMatrix {
			continue
		}
		attr := obj.Attr(f.Name)
		if !f.Multi {
			m, ok := rec.Get(f.Name).(scene.Matrix)
			if !ok || driven(attr, -1) {
				continue
			}
			if err := rec.Set(f.Name, m.MirrorYZ()); err != nil {
				return err
			}
			continue
		}
		items, _ := rec.Get(f.Name).([]any)
		if len(items) == 0 {
			continue
		}
		var indices []int
		if attr != nil {
			indices = attr.Indices()
		}
		out := make([]any, len(items))
		for i, v := range items {
			out[i] = v
			m, ok := v.(scene.Matrix)
			if !ok || (i < len(indices) && driven(attr, indices[i])) {
				continue
			}
			out[i] = m.MirrorYZ()
		}
		if err := rec.Set(f.Name, out); err != nil {
			return err
		}
	}
	return nil
}

// driven reports whether attr (slot idx for multi attributes, -1 otherwise)
// has an incoming connection.
func driven(attr *scene.Attr, idx int) bool {
	if attr == nil {
		return false
	}
	if idx < 0 {
		_, ok := attr.Input()
		return ok
	}
	_, ok := attr.SlotInput(idx)
	return ok
}
