package types

import (
	"fmt"
	"strings"
)

// LabelRule selects how a navigation label is derived from a content object.
type LabelRule int

const (
	// LabelUseDefaultString uses the object's String() representation
	LabelUseDefaultString LabelRule = iota
	// LabelUseSearchField reads the attribute named by NavType.SearchField
	LabelUseSearchField
	// LabelUseGetLabel calls the object's dedicated label method
	LabelUseGetLabel
)

var labelRuleNames = map[LabelRule]string{
	LabelUseDefaultString: "USE_DEFAULT_STRING",
	LabelUseSearchField:   "USE_SEARCH_FIELD",
	LabelUseGetLabel:      "USE_GET_LABEL",
}

// String returns the configuration name of the rule
func (r LabelRule) String() string {
	if name, ok := labelRuleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("LabelRule(%d)", int(r))
}

// Valid reports whether r is a known rule
func (r LabelRule) Valid() bool {
	_, ok := labelRuleNames[r]
	return ok
}

// ParseLabelRule accepts the configuration names, case-insensitively, with or
// without the USE_ prefix.
func ParseLabelRule(s string) (LabelRule, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return LabelUseDefaultString, nil
	}
	if !strings.HasPrefix(name, "USE_") {
		name = "USE_" + name
	}
	for rule, ruleName := range labelRuleNames {
		if ruleName == name {
			return rule, nil
		}
	}
	return 0, fmt.Errorf("unknown label rule %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (r LabelRule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *LabelRule) UnmarshalText(text []byte) error {
	rule, err := ParseLabelRule(string(text))
	if err != nil {
		return err
	}
	*r = rule
	return nil
}

// NavType declares a content kind as navigable and configures its label rule.
type NavType struct {
	Kind        string    `json:"kind" yaml:"kind"`
	SearchField string    `json:"search_field,omitempty" yaml:"search_field,omitempty"`
	LabelRule   LabelRule `json:"label_rule" yaml:"label_rule"`
}
