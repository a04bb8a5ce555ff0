// Package intent implements the extraction pipeline: response validation,
// domain-aware normalization, semantic action matching, and the capability
// scope gate.
package intent

import (
	"regexp"
	"strings"
)

// SynonymRule rewrites matched text during normalization.
type SynonymRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// DomainProfile is the pluggable domain configuration: lightweight lexical
// normalization, action trigger aliases for match boosting, and enum value
// aliases for slot normalization.
type DomainProfile struct {
	Name             string
	SynonymRules     []SynonymRule
	ActionAlias      map[string][]string
	EnumAlias        map[string]map[string]string
	SlotMap          map[string][]string
	PreserveLiterals bool
	PromptTemplate   string
}

// Normalize trims, collapses whitespace, and applies the synonym rules.
func (p *DomainProfile) Normalize(text string) string {
	t := strings.TrimSpace(text)
	t = regexp.MustCompile(`\s+`).ReplaceAllString(t, " ")

	for _, rule := range p.SynonymRules {
		t = rule.Pattern.ReplaceAllString(t, rule.Replacement)
	}
	return t
}

// NormalizeEnum maps a free-text slot value onto the fixed enumeration for
// the given slot key. Values already in canonical form and values for open
// slots (facility_type style) pass through unchanged, which makes the
// mapping idempotent.
func (p *DomainProfile) NormalizeEnum(slotKey, raw string) string {
	norm := p.Normalize(raw)
	if aliases, ok := p.EnumAlias[slotKey]; ok {
		if mapped, ok := aliases[norm]; ok {
			return mapped
		}
	}
	return norm
}

// AliasHits counts how many of an action's trigger strings occur in the
// normalized text.
func (p *DomainProfile) AliasHits(actionName, normalizedText string) int {
	hits := 0
	for _, trigger := range p.ActionAlias[actionName] {
		trigger = strings.TrimSpace(trigger)
		if trigger != "" && strings.Contains(normalizedText, trigger) {
			hits++
		}
	}
	return hits
}

// SlotCandidates returns the slot keys that may fill a parameter: the key
// itself plus any configured alternates.
func (p *DomainProfile) SlotCandidates(paramKey string) []string {
	keys := []string{paramKey}
	keys = append(keys, p.SlotMap[paramKey]...)
	return keys
}

// ExpoProfile is the exhibition-guide domain: Chinese category words map to
// the target_type enumeration, and each catalog action carries trigger
// phrases for alias boosting.
func ExpoProfile(preserveLiterals bool) *DomainProfile {
	template := "intent_parse_v1"
	if preserveLiterals {
		template = "intent_parse_v2"
	}

	return &DomainProfile{
		Name: "expo",
		SynonymRules: []SynonymRule{
			{Pattern: regexp.MustCompile(`哪個位置|在哪裡|在哪`), Replacement: "位置"},
			{Pattern: regexp.MustCompile(`洗手間|化妝室`), Replacement: "廁所"},
		},
		ActionAlias: map[string][]string{
			"LocateExhibit":    {"攤位", "展區", "展品", "位置", "在哪", "怎麼找"},
			"ExplainExhibit":   {"介紹", "說明", "這是什麼"},
			"SuggestRoute":     {"路線", "怎麼走", "規劃", "順序"},
			"AnswerFAQ":        {"幾點", "開放", "票", "入場"},
			"LocateFacility":   {"廁所", "出口", "服務台", "飲水機", "電梯"},
			"ProvideSchedule":  {"時程", "議程", "活動", "場次"},
			"RecommendExhibits": {"推薦", "有什麼好看", "必看"},
			"CrowdStatus":      {"人多", "人潮", "排隊"},
		},
		EnumAlias: map[string]map[string]string{
			"target_type": {
				"展區": "exhibit_zone",
				"攤位": "booth",
				"廠商": "booth",
				"展品": "exhibit",
			},
		},
		SlotMap: map[string][]string{
			"target_name": {"booth_id", "exhibit_name", "zone_name"},
		},
		PreserveLiterals: preserveLiterals,
		PromptTemplate:   template,
	}
}
