package store

import (
	"time"

	"recipe-catalog/internal/pkg/common"
)

func ptr[T any](v T) *T {
	return &v
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// DemoRecipes 本機開發用的示範食譜
func DemoRecipes() []*common.Recipe {
	return []*common.Recipe{
		{
			ID:         "demo1",
			Name:       "Kureci pad thai",
			SourceType: common.SourceInstagram,
			SourceURL:  ptr("https://instagram.com/p/example1"),
			Ingredients: []common.Ingredient{
				{Name: "kureci prsa", Key: true},
				{Name: "ryzove nudle"},
				{Name: "vejce"},
				{Name: "arasidy"},
			},
			Origin:       "thajske",
			Exclusions:   []string{"laktoza"},
			Instructions: "1. Nakrajej kure na kousky\n2. Opec na pánvi\n3. Přidej nudle a vejce\n4. Dochut rybí omáčkou",
			Notes:        "Místo kuřete lze použít tofu",
			CreatedAt:    day("2026-01-15"),
		},
		{
			ID:         "demo2",
			Name:       "Svickova na smetane",
			SourceType: common.SourceHandwritten,
			Ingredients: []common.Ingredient{
				{Name: "hovezi svickova", Key: true},
				{Name: "smetana"},
				{Name: "mrkev"},
				{Name: "brusinky"},
			},
			Origin:       "ceske",
			Exclusions:   []string{},
			CookTime:     ptr(180),
			Instructions: "1. Maso naložit do zeleniny\n2. Péct 3 hodiny\n3. Připravit omáčku ze smetany",
			Notes:        "Babicin recept",
			CreatedAt:    day("2026-01-10"),
		},
		{
			ID:         "demo3",
			Name:       "Spaghetti carbonara",
			SourceType: common.SourceManual,
			Ingredients: []common.Ingredient{
				{Name: "spaghetti", Key: true},
				{Name: "slanina", Key: true},
				{Name: "vejce"},
				{Name: "parmezan"},
			},
			Origin:       "italske",
			Exclusions:   []string{},
			CookTime:     ptr(20),
			Instructions: "1. Uvařit těstoviny\n2. Opéct slaninu\n3. Smíchat s vejcem a sýrem",
			Notes:        "Nikdy nepřidávat smetanu!",
			CreatedAt:    day("2026-01-20"),
		},
		{
			ID:         "demo4",
			Name:       "Jáhlový krém",
			SourceType: common.SourceInstagram,
			SourceURL:  ptr("https://www.instagram.com/reel/DTdnjPqDOgI/"),
			Ingredients: []common.Ingredient{
				{Name: "jáhly", Key: true},
				{Name: "kolagen"},
				{Name: "kakao (nepražené, plnotučné)"},
				{Name: "žloutky", Key: true},
				{Name: "sůl"},
				{Name: "řecký jogurt z a2 mléka"},
			},
			Origin:       "ceske",
			Exclusions:   []string{"lepek"},
			Instructions: "1. Uvařit jáhly\n2. Přidat kolagen a kakao\n3. Vmíchat žloutky\n4. Osolit\n5. Podávat s řeckým jogurtem",
			Notes:        "Žloutky do každé kaše! Inspirace od @sweet_melange",
			CreatedAt:    day("2026-01-30"),
		},
	}
}
