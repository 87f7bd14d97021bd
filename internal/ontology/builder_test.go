package ontology

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedBuilder() *Builder {
	b := NewBuilder()
	b.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return b
}

func TestBuild_NumberTyping(t *testing.T) {
	var specs []Observation
	for _, v := range []string{"10", "12.5", "30", "45", "not a number"} {
		specs = append(specs, Observation{Attribute: "Max Pressure", Value: v})
	}

	def := fixedBuilder().Build(nil, specs)
	require.Len(t, def.Attributes, 1)

	attr := def.Attributes[0]
	assert.Equal(t, "max_pressure", attr.ID)
	assert.Equal(t, TypeNumber, attr.Type)
	assert.Empty(t, attr.AllowedValues)
}

func TestBuild_EnumTyping(t *testing.T) {
	var facets []Observation
	for _, v := range []string{"Beginner", "Intermediate", "Advanced", "beginner", "Advanced", "Intermediate"} {
		facets = append(facets, Observation{Attribute: "Skill Level", Value: v, Category: "tools"})
	}

	def := fixedBuilder().Build(facets, nil)
	require.Len(t, def.Attributes, 1)

	attr := def.Attributes[0]
	assert.Equal(t, TypeEnum, attr.Type)
	assert.LessOrEqual(t, len(attr.AllowedValues), 12)
	assert.Equal(t, []string{"Beginner", "Intermediate", "Advanced"}, attr.AllowedValues)
	assert.Equal(t, []string{"beginner", "intermediate", "advanced"}, attr.Synonyms)
}

func TestBuild_StringTypingWhenTooManyDistinct(t *testing.T) {
	values := []string{
		"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
		"golf", "hotel", "india", "juliett", "kilo", "lima",
		"mike", "november", "oscar", "papa", "quebec", "romeo",
		"sierra", "tango", "uniform", "victor", "whiskey", "xray",
		"yankee", "zulu",
	}
	var facets []Observation
	for _, v := range values {
		facets = append(facets, Observation{Attribute: "Series Name", Value: v})
	}

	def := fixedBuilder().Build(facets, nil)
	require.Len(t, def.Attributes, 1)
	assert.Equal(t, TypeString, def.Attributes[0].Type)
	assert.Empty(t, def.Attributes[0].AllowedValues)
}

func TestBuild_SampleCap(t *testing.T) {
	var specs []Observation
	for i := 0; i < 100; i++ {
		specs = append(specs, Observation{Attribute: "weight", Value: "42"})
	}

	b := fixedBuilder()
	def := b.Build(nil, specs)
	require.Len(t, def.Attributes, 1)
	// Capped pools still classify; 100 identical numeric samples stay number.
	assert.Equal(t, TypeNumber, def.Attributes[0].Type)
}

func TestBuild_FacetOrderSharedAcrossCategories(t *testing.T) {
	var facets []Observation
	add := func(name string, count int, category string) {
		for i := 0; i < count; i++ {
			facets = append(facets, Observation{Attribute: name, Value: "v", Category: category})
		}
	}
	add("Brand", 9, "valves")
	add("Material", 7, "valves")
	add("Skill Level", 5, "fasteners")
	add("Color", 3, "fasteners")

	def := fixedBuilder().Build(facets, nil)

	require.Contains(t, def.FacetOrderByCategory, "valves")
	require.Contains(t, def.FacetOrderByCategory, "fasteners")
	want := []string{"Brand", "Material", "Skill Level", "Color"}
	assert.Equal(t, want, def.FacetOrderByCategory["valves"])
	assert.Equal(t, want, def.FacetOrderByCategory["fasteners"])
}

func TestBuild_FacetOrderTopEight(t *testing.T) {
	var facets []Observation
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for rank, name := range names {
		for i := 0; i < len(names)-rank; i++ {
			facets = append(facets, Observation{Attribute: name, Value: "v", Category: "general"})
		}
	}

	def := fixedBuilder().Build(facets, nil)
	order := def.FacetOrderByCategory["general"]
	require.Len(t, order, 8)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, order)
}

func TestNewBuilderWithLimits_FacetLimit(t *testing.T) {
	var facets []Observation
	add := func(name string, count int) {
		for i := 0; i < count; i++ {
			facets = append(facets, Observation{Attribute: name, Value: "v", Category: "general"})
		}
	}
	add("Brand", 3)
	add("Material", 2)
	add("Color", 1)

	def := NewBuilderWithLimits(40, 2).Build(facets, nil)
	assert.Equal(t, []string{"Brand", "Material"}, def.FacetOrderByCategory["general"])
}

func TestNewBuilderWithLimits_SampleCap(t *testing.T) {
	def := NewBuilderWithLimits(1, 8).Build(nil, []Observation{
		{Attribute: "Size", Value: "10"},
		{Attribute: "Size", Value: "not a number"},
	})
	require.Len(t, def.Attributes, 1)
	// Only the first sample is kept, so the pool reads as fully numeric.
	assert.Equal(t, TypeNumber, def.Attributes[0].Type)
}

func TestNewBuilderWithLimits_NonPositiveKeepsDefaults(t *testing.T) {
	b := NewBuilderWithLimits(0, -1)
	assert.Equal(t, defaultMaxSamples, b.maxSamples)
	assert.Equal(t, defaultTopFacets, b.topFacets)
}

func TestBuild_VersionIsSortableUTC(t *testing.T) {
	def := fixedBuilder().Build(nil, nil)
	assert.Equal(t, "20250314092653", def.Version)
	assert.Equal(t, "2025-03-14T09:26:53Z", def.GeneratedAt)
}
