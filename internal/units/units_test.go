package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalAttributeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Flow Rate", "flow_rate"},
		{"  Max. Pressure (PSI) ", "max_pressure_psi"},
		{"length", "length"},
		{"__weird--id__", "weird_id"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, CanonicalAttributeID(tc.in), "input %q", tc.in)
	}
}

func TestExtractNumber(t *testing.T) {
	v, ok := ExtractNumber("1,250.5 mm")
	require.True(t, ok)
	assert.InDelta(t, 1250.5, v, 1e-9)

	v, ok = ExtractNumber("-40 °C")
	require.True(t, ok)
	assert.InDelta(t, -40, v, 1e-9)

	_, ok = ExtractNumber("stainless steel")
	assert.False(t, ok)
}

func TestDiscoverRules_LengthConversion(t *testing.T) {
	samples := []Sample{
		{AttributeID: "length", RawValue: "25 mm"},
		{AttributeID: "length", RawValue: "1 in"},
	}

	rules := DiscoverRules(samples)
	require.Len(t, rules, 2)

	var inch *Rule
	for i := range rules {
		if rules[i].SourceUnit == "in" {
			inch = &rules[i]
		}
	}
	require.NotNil(t, inch, "expected a rule for the inch samples")
	assert.Equal(t, "mm", inch.TargetUnit)
	assert.InDelta(t, 25.4, inch.Multiplier, 1e-9)
	assert.Equal(t, "length", inch.AttributeID)
}

func TestDiscoverRules_RepeatsCollapse(t *testing.T) {
	samples := []Sample{
		{AttributeID: "length", RawValue: "25 mm"},
		{AttributeID: "length", RawValue: "30 mm"},
		{AttributeID: "length", RawValue: "42 mm"},
	}

	rules := DiscoverRules(samples)
	assert.Len(t, rules, 1)
}

func TestDiscoverRules_NoUnitNoRule(t *testing.T) {
	samples := []Sample{
		{AttributeID: "color", RawValue: "red"},
		{AttributeID: "count", RawValue: "15"},
	}

	assert.Empty(t, DiscoverRules(samples))
}

func TestDiscoverRules_DeclarationOrderWins(t *testing.T) {
	// "m" could be read as length or nothing else; length is declared first
	// and must win even for values a later pattern could also claim.
	rules := DiscoverRules([]Sample{{AttributeID: "size", RawValue: "2 m"}})
	require.Len(t, rules, 1)
	assert.Equal(t, "mm", rules[0].TargetUnit)
	assert.InDelta(t, 1000, rules[0].Multiplier, 1e-9)
}

func TestNormalizeValue_Fahrenheit(t *testing.T) {
	rules := DiscoverRules([]Sample{
		{AttributeID: "temperature", RawValue: "100 °F"},
		{AttributeID: "temperature", RawValue: "30 °C"},
	})

	got := NormalizeValue(rules, "temperature", "100 °F")
	require.NotNil(t, got)
	assert.InDelta(t, 37.7778, *got, 1e-3)
}

func TestNormalizeValue_NoMatchReturnsNil(t *testing.T) {
	rules := DiscoverRules([]Sample{{AttributeID: "length", RawValue: "25 mm"}})

	assert.Nil(t, NormalizeValue(rules, "length", "heavy duty"))
	assert.Nil(t, NormalizeValue(rules, "pressure", "30 psi"))
	assert.Nil(t, NormalizeValue(nil, "length", "25 mm"))
}

func TestNormalizeValue_PressureRoundTrip(t *testing.T) {
	rules := DiscoverRules([]Sample{
		{AttributeID: "Max Pressure", RawValue: "150 psi"},
		{AttributeID: "Max Pressure", RawValue: "10 bar"},
	})

	got := NormalizeValue(rules, "max_pressure", "2 bar")
	require.NotNil(t, got)
	assert.InDelta(t, 29.0076, *got, 1e-4)
}
