package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separator joins name segments.
const Separator = "_"

// Case is the letter-case policy applied to descriptions.
type Case string

const (
	CaseUnchanged  Case = "unchanged"
	CaseLower      Case = "lower"
	CaseUpper      Case = "upper"
	CaseCapitalize Case = "capitalize"
)

// RuleKind selects the control or joint rule set.
type RuleKind string

const (
	RuleCtl RuleKind = "ctl"
	RuleJnt RuleKind = "jnt"
)

// DefaultRule is the template used when none is configured.
const DefaultRule = "{name}_{side}{index}_{description}_{extension}"

// Tokens recognised inside rule templates.
var Tokens = []string{"name", "side", "index", "description", "extension"}

var tokenPattern = regexp.MustCompile(`\{([a-z_]*)\}`)

// RuleSet is one independently configurable naming rule.
type RuleSet struct {
	Template        string
	SideCenter      string
	SideLeft        string
	SideRight       string
	IndexPadding    int
	DescriptionCase Case
	Extension       string
}

// Convention is the per-assembly naming configuration.
type Convention struct {
	Ctl RuleSet
	Jnt RuleSet
}

// DefaultConvention mirrors the stock configuration values.
func DefaultConvention() Convention {
	return Convention{
		Ctl: RuleSet{
			Template:        DefaultRule,
			SideCenter:      "C",
			SideLeft:        "L",
			SideRight:       "R",
			DescriptionCase: CaseLower,
			Extension:       "ctl",
		},
		Jnt: RuleSet{
			Template:        DefaultRule,
			SideCenter:      "C",
			SideLeft:        "L",
			SideRight:       "R",
			DescriptionCase: CaseLower,
			Extension:       "jnt",
		},
	}
}

// Rules returns the rule set for kind; unknown kinds use the control rules.
func (c Convention) Rules(kind RuleKind) RuleSet {
	if kind == RuleJnt {
		return c.Jnt
	}
	return c.Ctl
}

// SideAlias maps a side to its configured token.
func (r RuleSet) SideAlias(side Side) string {
	switch side {
	case SideCenter:
		return r.SideCenter
	case SideLeft:
		return r.SideLeft
	case SideRight:
		return r.SideRight
	default:
		return ""
	}
}

// FormatName renders the name of an object owned by component id. An empty
// extension falls back to the rule set's default. negate swaps Left and Right
// so the mirrored counterpart's name can be looked up.
func FormatName(id Identity, conv Convention, description, extension string, kind RuleKind, negate bool) string {
	rules := conv.Rules(kind)
	template := rules.Template
	if strings.TrimSpace(template) == "" {
		template = DefaultRule
	}
	if extension == "" {
		extension = rules.Extension
	}

	var side, index string
	if !id.IsAssembly() {
		s := id.Side
		if negate {
			s = s.Opposite()
		}
		side = rules.SideAlias(s)
		if id.Index != NoIndex {
			index = fmt.Sprintf("%0*d", rules.IndexPadding, id.Index)
		}
	}

	values := map[string]string{
		"name":        id.Name,
		"side":        side,
		"index":       index,
		"description": ApplyCase(description, rules.DescriptionCase),
		"extension":   extension,
	}
	rendered := tokenPattern.ReplaceAllStringFunc(template, func(tok string) string {
		return values[strings.Trim(tok, "{}")]
	})
	return collapse(rendered)
}

// ValidateRule reports templates that reference unknown tokens or omit
// {name}.
func ValidateRule(template string) error {
	if strings.TrimSpace(template) == "" {
		return fmt.Errorf("naming rule is empty")
	}
	known := make(map[string]struct{}, len(Tokens))
	for _, tok := range Tokens {
		known[tok] = struct{}{}
	}
	hasName := false
	for _, match := range tokenPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := known[match[1]]; !ok {
			return fmt.Errorf("naming rule %q: unknown token {%s}", template, match[1])
		}
		if match[1] == "name" {
			hasName = true
		}
	}
	if !hasName {
		return fmt.Errorf("naming rule %q: missing {name}", template)
	}
	return nil
}

// ApplyCase transforms a description per policy.
func ApplyCase(value string, policy Case) string {
	switch policy {
	case CaseLower:
		return cases.Lower(language.Und).String(value)
	case CaseUpper:
		return cases.Upper(language.Und).String(value)
	case CaseCapitalize:
		if value == "" {
			return value
		}
		_, size := utf8.DecodeRuneInString(value)
		return cases.Upper(language.Und).String(value[:size]) + cases.Lower(language.Und).String(value[size:])
	default:
		return value
	}
}

// ParseCase normalises a case policy string.
func ParseCase(value string) (Case, error) {
	switch Case(strings.ToLower(strings.TrimSpace(value))) {
	case CaseLower:
		return CaseLower, nil
	case CaseUpper:
		return CaseUpper, nil
	case CaseCapitalize:
		return CaseCapitalize, nil
	case CaseUnchanged, "", "default":
		return CaseUnchanged, nil
	default:
		return CaseUnchanged, fmt.Errorf("unknown letter case %q", value)
	}
}

func collapse(name string) string {
	parts := strings.Split(name, Separator)
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, Separator)
}
