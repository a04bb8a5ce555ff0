// internal/intent/profile_test.go
package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEnum_TargetType(t *testing.T) {
	profile := ExpoProfile(false)

	tests := []struct {
		raw  string
		want string
	}{
		{"展區", "exhibit_zone"},
		{"攤位", "booth"},
		{"廠商", "booth"},
		{"展品", "exhibit"},
		{"exhibit_zone", "exhibit_zone"},
		{"booth", "booth"},
		{"exhibit", "exhibit"},
		{"其他東西", "其他東西"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, profile.NormalizeEnum("target_type", tt.raw))
		})
	}
}

func TestNormalizeEnum_Idempotent(t *testing.T) {
	profile := ExpoProfile(false)

	for _, raw := range []string{"展區", "攤位", "廠商", "展品", "booth", "自由文字"} {
		once := profile.NormalizeEnum("target_type", raw)
		twice := profile.NormalizeEnum("target_type", once)
		assert.Equal(t, once, twice, "normalizing %q twice changed the value", raw)
	}
}

func TestNormalizeEnum_OpenSlotPassesThrough(t *testing.T) {
	profile := ExpoProfile(false)

	// facility_type has no closed enumeration; wording is preserved.
	assert.Equal(t, "飲水機", profile.NormalizeEnum("facility_type", "飲水機"))
	assert.Equal(t, "medical station", profile.NormalizeEnum("facility_type", "medical station"))
}

func TestNormalize_CollapsesWhitespaceAndSynonyms(t *testing.T) {
	profile := ExpoProfile(false)

	assert.Equal(t, "A12 攤位 位置", profile.Normalize("  A12   攤位 在哪裡 "))
	assert.Equal(t, "廁所 位置", profile.Normalize("洗手間 在哪"))
}

func TestAliasHits(t *testing.T) {
	profile := ExpoProfile(false)

	assert.Equal(t, 2, profile.AliasHits("LocateExhibit", "A12 攤位 位置"))
	assert.Equal(t, 0, profile.AliasHits("CrowdStatus", "A12 攤位 位置"))
	assert.Equal(t, 0, profile.AliasHits("NoSuchAction", "anything"))
}

func TestExpoProfile_TemplateSelection(t *testing.T) {
	assert.Equal(t, "intent_parse_v1", ExpoProfile(false).PromptTemplate)
	assert.Equal(t, "intent_parse_v2", ExpoProfile(true).PromptTemplate)
	assert.True(t, ExpoProfile(true).PreserveLiterals)
}
