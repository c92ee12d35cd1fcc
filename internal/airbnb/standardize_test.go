package airbnb

import "testing"

func detailWith(eventData map[string]any, sections []any) map[string]any {
	return map[string]any{
		"sections": map[string]any{
			"metadata": map[string]any{
				"loggingContext": map[string]any{"eventDataLogging": eventData},
				"sharingConfig":  map[string]any{"title": "Test Stay"},
			},
			"sections": sections,
		},
	}
}

func descriptionSection(text string) any {
	return map[string]any{
		"sectionId": "DESCRIPTION_DEFAULT",
		"section": map[string]any{
			"htmlDescription": map[string]any{"htmlText": text},
		},
	}
}

func TestStandardize_BedroomsFieldBeatsDescription(t *testing.T) {
	rec := standardize(detailWith(
		map[string]any{"bedrooms": float64(3)},
		[]any{descriptionSection("A sprawling 5 bedroom estate")},
	))
	if rec.Bedrooms == nil || *rec.Bedrooms != 3 {
		t.Errorf("bedrooms = %v, want 3", rec.Bedrooms)
	}
}

func TestStandardize_BedroomsFromDescriptionWhenFieldAbsent(t *testing.T) {
	rec := standardize(detailWith(
		map[string]any{},
		[]any{descriptionSection("Cozy 4 bedroom cabin near the lake")},
	))
	if rec.Bedrooms == nil || *rec.Bedrooms != 4 {
		t.Errorf("bedrooms = %v, want 4", rec.Bedrooms)
	}
}

func TestStandardize_BedroomsAlternateFieldNames(t *testing.T) {
	for _, key := range []string{"listingBedrooms", "numBedrooms"} {
		rec := standardize(detailWith(
			map[string]any{key: float64(2)},
			[]any{descriptionSection("Described as 6 bedroom")},
		))
		if rec.Bedrooms == nil || *rec.Bedrooms != 2 {
			t.Errorf("key %s: bedrooms = %v, want 2", key, rec.Bedrooms)
		}
	}
}

func TestStandardize_BathroomsFromOverviewBeforeDescription(t *testing.T) {
	rec := standardize(detailWith(
		map[string]any{},
		[]any{
			map[string]any{
				"sectionId": "OVERVIEW_DEFAULT_V2",
				"section": map[string]any{
					"detailItems": []any{
						map[string]any{"title": "4 guests"},
						map[string]any{"title": "1.5 baths"},
					},
				},
			},
			descriptionSection("Has 3 bathrooms according to the host"),
		},
	))
	if rec.Bathrooms == nil || *rec.Bathrooms != 1.5 {
		t.Errorf("bathrooms = %v, want 1.5", rec.Bathrooms)
	}
}

func TestStandardize_CountsNilWhenNothingMatches(t *testing.T) {
	rec := standardize(detailWith(
		map[string]any{},
		[]any{descriptionSection("A lovely studio by the sea")},
	))
	if rec.Bedrooms != nil {
		t.Errorf("bedrooms = %v, want nil", rec.Bedrooms)
	}
	if rec.Bathrooms != nil {
		t.Errorf("bathrooms = %v, want nil", rec.Bathrooms)
	}
}

func TestStandardize_TitleFallsBackToOGTag(t *testing.T) {
	detail := map[string]any{
		"sections": map[string]any{
			"metadata": map[string]any{
				"seoFeatures": map[string]any{
					"ogTags": map[string]any{"ogTitle": "Harbor Loft - Airbnb"},
				},
			},
			"sections": []any{},
		},
	}
	rec := standardize(detail)
	if rec.Title != "Harbor Loft - Airbnb" {
		t.Errorf("title = %q", rec.Title)
	}
}

func TestSidebarPrice_PrefersDiscounted(t *testing.T) {
	section := map[string]any{
		"structuredDisplayPrice": map[string]any{
			"primaryLine": map[string]any{
				"discountedPrice": "$189",
				"originalPrice":   "$240",
			},
		},
	}
	got := sidebarPrice(section)
	if got == nil || *got != 189 {
		t.Errorf("sidebarPrice = %v, want 189", got)
	}
}

func TestSidebarPrice_FallsThroughToOriginal(t *testing.T) {
	section := map[string]any{
		"structuredDisplayPrice": map[string]any{
			"primaryLine": map[string]any{"originalPrice": "$1,240"},
		},
	}
	got := sidebarPrice(section)
	if got == nil || *got != 1240 {
		t.Errorf("sidebarPrice = %v, want 1240", got)
	}
}

func TestSidebarPrice_NilWithoutPrimaryLine(t *testing.T) {
	if got := sidebarPrice(map[string]any{}); got != nil {
		t.Errorf("sidebarPrice = %v, want nil", got)
	}
}
