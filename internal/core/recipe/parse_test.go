package recipe

import (
	"testing"

	"recipe-catalog/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		raw := "```json\n" + `{
  "name": "  Pad Thai ",
  "ingredients": [{"name": "rýžové nudle", "key": true}, {"name": "  ", "key": true}, "arašídy"],
  "origin": "Thajské",
  "instructions": ["Namočit nudle", "Orestovat"],
  "exclusions": ["Laktoza", "gluten", "laktoza", "herbs"],
  "notes": "pálivé",
  "cookTime": "25 min"
}` + "\n```"

		got, err := ParseExtraction(raw)
		require.NoError(t, err)
		assert.Equal(t, "Pad Thai", got.Name)
		assert.Equal(t, []common.Ingredient{
			{Name: "rýžové nudle", Key: true},
			{Name: "arašídy"},
		}, got.Ingredients)
		require.NotNil(t, got.Origin)
		assert.Equal(t, "thajske", *got.Origin)
		assert.Equal(t, "Namočit nudle\nOrestovat", got.Instructions)
		assert.Equal(t, []string{"laktoza", "lepek"}, got.Exclusions)
		assert.Equal(t, "pálivé", got.Notes)
		require.NotNil(t, got.CookTime)
		assert.Equal(t, 25, *got.CookTime)
	})

	t.Run("object embedded in prose", func(t *testing.T) {
		got, err := ParseExtraction(`Sure! Here is the recipe: {"name":"Svíčková","origin":"czech"} Hope it helps.`)
		require.NoError(t, err)
		assert.Equal(t, "Svíčková", got.Name)
		require.NotNil(t, got.Origin)
		assert.Equal(t, "ceske", *got.Origin)
	})

	t.Run("missing fields default to empty", func(t *testing.T) {
		got, err := ParseExtraction(`{}`)
		require.NoError(t, err)
		assert.Empty(t, got.Name)
		assert.NotNil(t, got.Ingredients)
		assert.Empty(t, got.Ingredients)
		assert.NotNil(t, got.Exclusions)
		assert.Empty(t, got.Exclusions)
		assert.Nil(t, got.Origin)
		assert.Nil(t, got.CookTime)
	})

	t.Run("unknown origin is dropped", func(t *testing.T) {
		got, err := ParseExtraction(`{"name":"Tacos","origin":"martian"}`)
		require.NoError(t, err)
		assert.Nil(t, got.Origin)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseExtraction("I could not read the handwriting, sorry.")
		var malformed *common.MalformedExtractionError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "I could not read the handwriting, sorry.", malformed.Raw)
		assert.True(t, common.IsUpstreamError(err))
	})

	t.Run("array instead of object", func(t *testing.T) {
		_, err := ParseExtraction(`["name"]`)
		assert.Error(t, err)
	})
}

func TestNormalizeOrigin(t *testing.T) {
	tests := map[string]string{
		"italske":       "italske",
		"ITALSKÉ":       "italske",
		"Italian":       "italske",
		"česká kuchyně": "ceske",
		"japonská":      "japonske",
		"mexican":       "mexicke",
		"":              "",
		"fusion":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeOrigin(in), in)
	}
}

func TestNormalizeAllergens(t *testing.T) {
	got := NormalizeAllergens([]string{"Ořechy", "nuts", "dairy", "lactose", "Maso", "celer"})
	assert.Equal(t, []string{"orechy", "laktoza", "maso"}, got)
	assert.Equal(t, []string{}, NormalizeAllergens(nil))
}

func TestAsMinutes(t *testing.T) {
	assert.Nil(t, asMinutes(nil))
	assert.Nil(t, asMinutes(float64(0)))
	assert.Nil(t, asMinutes("about an hour"))
	require.NotNil(t, asMinutes(44.6))
	assert.Equal(t, 45, *asMinutes(44.6))
	require.NotNil(t, asMinutes(" 90 minut"))
	assert.Equal(t, 90, *asMinutes(" 90 minut"))
}
