package build

import (
	"context"
	"log/slog"
	"strings"

	"armature/internal/anchor"
	"armature/internal/component"
	"armature/internal/ddata"
	"armature/internal/logging"
	"armature/internal/naming"
	"armature/internal/scene"
)

// Cleanup output names.
const (
	// AttrMembers is the multi message attribute listing set members.
	AttrMembers = "members"
	// AttrBindPose holds the world matrix captured as the pose baseline.
	AttrBindPose = "bind_pose"
	// ExtSet suffixes set names.
	ExtSet = "set"
	// AttrCallbacks lists the host callbacks a rig needs, as "event:object"
	// entries on the rig container.
	AttrCallbacks = "callbacks"
	// EventSpaceSwitch is the callback fired when a space switch changes.
	EventSpaceSwitch = "space_switch"
)

// cleanup groups controls and joints into sets, adds the container-scope
// sets, captures the bind pose of every control and publishes the sets.
func (r *run) cleanup(_ context.Context, logger *slog.Logger) error {
	containers := containers(r.bc)
	if len(containers) == 0 {
		logger.Debug("no rig container, nothing to clean up")
		return nil
	}
	container := containers[0]
	asm := r.bc.Tree.Identity()

	ctlSet, err := r.set(container, naming.FormatName(asm, r.bc.Convention, "controls", ExtSet, naming.RuleCtl, false))
	if err != nil {
		return err
	}
	jntSet, err := r.set(container, naming.FormatName(asm, r.bc.Convention, "joints", ExtSet, naming.RuleJnt, false))
	if err != nil {
		return err
	}

	var ctls, jnts int
	for _, c := range r.comps {
		node := c.Node()
		root := r.bc.Root(node.ID())
		if root == nil {
			continue
		}
		var scopeSet *scene.Object
		if scope := strings.TrimSpace(node.Record().String(ddata.FieldContainerScope)); scope != "" {
			if scopeSet, err = r.set(container, scope); err != nil {
				return err
			}
		}
		for _, ctl := range published(root, anchor.SlotCtls) {
			if err := addMember(ctlSet, ctl); err != nil {
				return err
			}
			if scopeSet != nil {
				if err := addMember(scopeSet, ctl); err != nil {
					return err
				}
			}
			if err := captureBindPose(ctl); err != nil {
				return err
			}
			ctls++
		}
		for _, jnt := range published(root, anchor.SlotJnts) {
			if err := addMember(jntSet, jnt); err != nil {
				return err
			}
			jnts++
		}
	}

	callbacks, err := r.registerCallbacks(container)
	if err != nil {
		return err
	}

	r.bc.Append(component.KeyPublished, ctlSet, jntSet)
	logger.Debug("rig sets published",
		logging.String("controls_set", ctlSet.Name()),
		logging.String("joints_set", jntSet.Name()),
		logging.Int("controls", ctls),
		logging.Int("joints", jnts),
		logging.Int("callbacks", callbacks),
	)
	return nil
}

// registerCallbacks records a space switch callback for every rig root with
// connected spaces. The entries go into the build context and onto the
// container so the host can register them again when the scene reopens.
func (r *run) registerCallbacks(container *scene.Object) (int, error) {
	var attr *scene.Attr
	n := 0
	for _, c := range r.comps {
		root := r.bc.Root(c.Node().ID())
		if root == nil {
			continue
		}
		spaces := root.Attr(component.AttrSpaces)
		if spaces == nil || len(spaces.Objects()) == 0 {
			continue
		}
		if attr == nil {
			var err error
			attr, err = container.EnsureAttr(scene.AttrSpec{Name: AttrCallbacks, Type: scene.TypeString, Multi: true})
			if err != nil {
				return 0, err
			}
		}
		entry := EventSpaceSwitch + ":" + root.Name()
		if err := attr.SetSlot(attr.Len(), entry); err != nil {
			return 0, err
		}
		r.bc.Append(component.KeyCallbacks, entry)
		n++
	}
	return n, nil
}

// set returns the set called name, creating it under container.
func (r *run) set(container *scene.Object, name string) (*scene.Object, error) {
	if obj := r.bc.Scene.Object(name); obj != nil && obj.Kind() == scene.KindSet {
		return obj, nil
	}
	obj, err := r.bc.Scene.Create(name, scene.KindSet, container)
	if err != nil {
		return nil, err
	}
	if _, err := obj.AddAttr(scene.AttrSpec{Name: AttrMembers, Type: scene.TypeMessage, Multi: true}); err != nil {
		return nil, err
	}
	return obj, nil
}

func addMember(set, obj *scene.Object) error {
	attr := set.Attr(AttrMembers)
	for _, member := range attr.Objects() {
		if member == obj {
			return nil
		}
	}
	_, err := attr.Append(obj.Message())
	return err
}

func captureBindPose(obj *scene.Object) error {
	attr, err := obj.EnsureAttr(scene.AttrSpec{Name: AttrBindPose, Type: scene.TypeMatrix})
	if err != nil {
		return err
	}
	return attr.Set(obj.WorldMatrix())
}

func published(root *scene.Object, slot string) []*scene.Object {
	attr := root.Attr(slot)
	if attr == nil {
		return nil
	}
	return attr.Objects()
}
