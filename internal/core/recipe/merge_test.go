package recipe

import (
	"testing"

	"recipe-catalog/internal/pkg/common"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T {
	return &v
}

func TestMergeAbsence(t *testing.T) {
	x := &common.PartialExtraction{
		Name:        "Carbonara",
		Ingredients: []common.Ingredient{{Name: "guanciale", Key: true}},
		Exclusions:  []string{},
	}

	assert.Nil(t, Merge(nil, nil))
	assert.Equal(t, x, Merge(x, nil))
	assert.Equal(t, x, Merge(nil, x))
}

func TestMergeIngredientUnion(t *testing.T) {
	fromText := &common.PartialExtraction{
		Ingredients: []common.Ingredient{{Name: "Eggs", Key: true}},
	}
	fromImage := &common.PartialExtraction{
		Ingredients: []common.Ingredient{{Name: "eggs", Key: false}, {Name: "Flour", Key: false}},
	}

	got := Merge(fromText, fromImage)
	assert.Equal(t, []common.Ingredient{
		{Name: "Eggs", Key: true},
		{Name: "Flour", Key: false},
	}, got.Ingredients)
}

func TestMergeDuplicateTextIngredients(t *testing.T) {
	fromText := &common.PartialExtraction{
		Ingredients: []common.Ingredient{
			{Name: "Salt", Key: false},
			{Name: "Pepper"},
			{Name: "salt", Key: true},
		},
	}
	fromImage := &common.PartialExtraction{
		Ingredients: []common.Ingredient{{Name: "Oil"}, {Name: "oil", Key: true}},
	}

	got := Merge(fromText, fromImage)
	assert.Equal(t, []common.Ingredient{
		{Name: "salt", Key: true},
		{Name: "Pepper"},
		{Name: "Oil"},
	}, got.Ingredients)
}

func TestMergeFieldPrecedence(t *testing.T) {
	fromText := &common.PartialExtraction{
		Name:         "",
		Origin:       nil,
		Instructions: "Mix everything.",
		Exclusions:   []string{"maso"},
		Notes:        "from caption",
		CookTime:     ptr(20),
	}
	fromImage := &common.PartialExtraction{
		Name:         "Pancakes",
		Origin:       ptr("americke"),
		Instructions: "Looks fried.",
		Exclusions:   []string{"orechy", "maso"},
		Notes:        "from photo",
		CookTime:     ptr(35),
		ImageURL:     "https://cdn.example.com/p.jpg",
	}

	got := Merge(fromText, fromImage)
	assert.Equal(t, "Pancakes", got.Name)
	assert.Equal(t, ptr("americke"), got.Origin)
	assert.Equal(t, "Mix everything.", got.Instructions)
	assert.Equal(t, []string{"maso", "orechy"}, got.Exclusions)
	assert.Equal(t, "from caption\nfrom photo", got.Notes)
	assert.Equal(t, ptr(20), got.CookTime)
	assert.Equal(t, "https://cdn.example.com/p.jpg", got.ImageURL)
}

func TestMergeDeterministic(t *testing.T) {
	a := &common.PartialExtraction{Name: "A", Ingredients: []common.Ingredient{{Name: "x"}}, Notes: "n1"}
	b := &common.PartialExtraction{Name: "B", Ingredients: []common.Ingredient{{Name: "y"}}, Notes: "n2"}

	first := Merge(a, b)
	second := Merge(a, b)
	assert.Equal(t, first, second)
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, []common.Ingredient{{Name: "x"}}, a.Ingredients)
}

func TestMergeNotesSkipEmpty(t *testing.T) {
	got := Merge(&common.PartialExtraction{}, &common.PartialExtraction{Notes: "only image"})
	assert.Equal(t, "only image", got.Notes)
}
