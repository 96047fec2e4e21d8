package naming

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[A-Za-z0-9]+`)

// SwapSide exchanges left and right side tokens inside an arbitrary string
// such as a space-switch reference list ("arm_L0_root,spine_C0_eff"). A token
// is a run of letters and digits that equals a left or right alias of either
// rule set, optionally followed by an index.
func SwapSide(value string, conv Convention) string {
	pairs := make(map[string]string)
	for _, rules := range []RuleSet{conv.Ctl, conv.Jnt} {
		left, right := rules.SideLeft, rules.SideRight
		if left == "" || right == "" || left == right {
			continue
		}
		pairs[left] = right
		pairs[right] = left
	}
	if len(pairs) == 0 {
		return value
	}
	return wordPattern.ReplaceAllStringFunc(value, func(word string) string {
		digits := strings.TrimRightFunc(word, func(r rune) bool { return r >= '0' && r <= '9' })
		suffix := word[len(digits):]
		if swapped, ok := pairs[digits]; ok {
			return swapped + suffix
		}
		return word
	})
}
