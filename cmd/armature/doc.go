// Command armature authors and builds rigs from persisted rig files.
//
// Every command works on a scratch scene: it loads a rig file, applies the
// requested guide, copy, mirror or build operation, and writes the result
// back when the operation changes the component tree.
//
//	armature components
//	armature show arm.json
//	armature guide arm.json -o arm.yaml
//	armature build arm.json --end-point attributes --step "tidy | tidy.go"
//	armature mirror arm.json --component arm_L0
//	armature history --limit 10
//	armature config init
package main
