package component

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"armature/internal/anchor"
	"armature/internal/ddata"
	"armature/internal/logging"
	"armature/internal/naming"
	"armature/internal/scene"
	"armature/internal/tree"
)

// Context keys written by the engine.
const (
	KeyBuildID   = "build_id"
	KeyAssembly  = "assembly"
	KeyRigRoot   = "rig_root"
	KeyPhases    = "phases"
	KeySteps     = "custom_steps"
	KeyPublished = "published"
	KeyCallbacks = "callbacks"
)

// BuildContext is the state shared by every hook and custom step of one
// build. Values are append-only per key: entries can be added, never
// replaced or removed.
type BuildContext struct {
	Scene      *scene.Scene
	Tree       *tree.Node
	Convention naming.Convention
	Logger     *slog.Logger

	roots     map[string]*scene.Object
	fallbacks map[anchor.Purpose]*scene.Object
	values    map[string][]any
	keys      []string
}

// NewBuildContext returns an empty context for building root into sc.
func NewBuildContext(sc *scene.Scene, root *tree.Node, logger *slog.Logger) *BuildContext {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BuildContext{
		Scene:      sc,
		Tree:       root,
		Convention: ddata.Convention(root.Record()),
		Logger:     logger,
		roots:      make(map[string]*scene.Object),
		fallbacks:  make(map[anchor.Purpose]*scene.Object),
		values:     make(map[string][]any),
	}
}

// Root returns the rig root registered for componentID.
func (b *BuildContext) Root(componentID string) *scene.Object {
	return b.roots[componentID]
}

// SetRoot registers the rig root of componentID. A component can register
// only once per build.
func (b *BuildContext) SetRoot(componentID string, obj *scene.Object) error {
	if _, ok := b.roots[componentID]; ok {
		return fmt.Errorf("component %s already has a rig root", componentID)
	}
	b.roots[componentID] = obj
	return nil
}

// Fallback returns the object components attach under when resolution finds
// no published slot.
func (b *BuildContext) Fallback(p anchor.Purpose) *scene.Object {
	return b.fallbacks[p]
}

// SetFallback registers the fallback object for p. The assembly sets its
// root control and its skeleton root.
func (b *BuildContext) SetFallback(p anchor.Purpose, obj *scene.Object) {
	b.fallbacks[p] = obj
}

// Resolve finds where node attaches for purpose p.
func (b *BuildContext) Resolve(node *tree.Node, p anchor.Purpose) anchor.Result {
	return anchor.Resolve(node, b, p)
}

// Append adds values under key.
func (b *BuildContext) Append(key string, values ...any) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = append(b.values[key], values...)
}

// Values returns a copy of the values stored under key.
func (b *BuildContext) Values(key string) []any {
	return append([]any(nil), b.values[key]...)
}

// Last returns the most recent value stored under key.
func (b *BuildContext) Last(key string) (any, bool) {
	vals := b.values[key]
	if len(vals) == 0 {
		return nil, false
	}
	return vals[len(vals)-1], true
}

// Keys returns the keys in first-write order.
func (b *BuildContext) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Snapshot returns a plain map copy, the form custom steps receive.
func (b *BuildContext) Snapshot() map[string]any {
	out := make(map[string]any, len(b.values))
	for key, vals := range b.values {
		out[key] = append([]any(nil), vals...)
	}
	return out
}

// Merge folds a snapshot returned by a custom step back in. Only additions
// survive: new keys and values appended past the known length.
func (b *BuildContext) Merge(snapshot map[string]any) {
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		vals, ok := snapshot[key].([]any)
		if !ok {
			if _, known := b.values[key]; !known {
				b.Append(key, snapshot[key])
			}
			continue
		}
		if n := len(b.values[key]); len(vals) > n {
			b.Append(key, vals[n:]...)
		}
	}
}

// MarshalJSON renders the context for the failure dump. Live objects are
// written by name.
func (b *BuildContext) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.values)+1)
	for key, vals := range b.values {
		items := make([]any, len(vals))
		for i, v := range vals {
			items[i] = dumpValue(v)
		}
		out[key] = items
	}
	roots := make(map[string]string, len(b.roots))
	for id, obj := range b.roots {
		roots[id] = obj.Name()
	}
	out["rig_roots"] = roots
	return json.Marshal(out)
}

// Dump returns the JSON form, falling back to an error description.
func (b *BuildContext) Dump() string {
	data, err := b.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}", err.Error())
	}
	return string(data)
}

func dumpValue(v any) any {
	switch val := v.(type) {
	case *scene.Object:
		if val == nil {
			return nil
		}
		return val.Name()
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprint(v)
	}
	return v
}
