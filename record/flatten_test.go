package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reviewbase/yelpdb/record"
)

func TestFlattenAttributes_Nil(t *testing.T) {
	assert.Nil(t, record.FlattenAttributes(nil))
}

func TestFlattenAttributes_ScalarAndNested(t *testing.T) {
	got := record.FlattenAttributes(map[string]any{
		"a": "1",
		"b": "{'x': 'y'}",
	})
	assert.Equal(t, map[string]string{
		"a":   "1",
		"b_x": "y",
	}, got)
}

func TestFlattenAttributes_PythonLiterals(t *testing.T) {
	got := record.FlattenAttributes(map[string]any{
		"WiFi":               "u'free'",
		"RestaurantsTakeOut": "True",
		"BusinessParking":    "{'garage': False, 'street': True}",
	})
	assert.Equal(t, map[string]string{
		"WiFi":                   "free",
		"RestaurantsTakeOut":     "True",
		"BusinessParking_garage": "False",
		"BusinessParking_street": "True",
	}, got)
}

func TestFlattenAttributes_UnparseableValueKeptVerbatim(t *testing.T) {
	got := record.FlattenAttributes(map[string]any{"Ambience": "casual"})
	assert.Equal(t, map[string]string{"Ambience": "casual"}, got)
}

func TestFlattenAttributes_NonStringValues(t *testing.T) {
	// Defensive: some exports carry native JSON values here.
	got := record.FlattenAttributes(map[string]any{
		"open":  true,
		"seats": float64(12),
	})
	assert.Equal(t, map[string]string{
		"open":  "True",
		"seats": "12.0",
	}, got)
}
