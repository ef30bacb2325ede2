package services

import (
	"testing"
	"time"

	"modelhub-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogFixture() []*models.Model {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return []*models.Model{
		{ID: "chair", Title: "Wooden Chair", Category: "furniture", Tags: []string{"wood"}, UserID: "u1", DownloadsCount: 5, ViewCount: 40, LikesCount: 2, CreatedAt: base},
		{ID: "car", Title: "Race Car", Description: "Fast vehicle", Category: "vehicles", UserID: "u2", DownloadsCount: 50, ViewCount: 10, LikesCount: 7, CreatedAt: base.Add(time.Hour)},
		{ID: "table", Title: "Table", Category: "furniture", Tags: []string{"Oak"}, UserID: "u1", DownloadsCount: 12, ViewCount: 90, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "sword", Title: "Sword", Category: "weapons", UserID: "u3", DownloadsCount: 1, CreatedAt: base.Add(3 * time.Hour)},
	}
}

func ids(list []*models.Model) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.ID)
	}
	return out
}

func TestFilterModels(t *testing.T) {
	list := catalogFixture()

	assert.Equal(t, []string{"sword", "table", "car", "chair"}, ids(FilterModels(list, CatalogQuery{})))
	assert.Equal(t, []string{"car", "table", "chair", "sword"}, ids(FilterModels(list, CatalogQuery{Sort: SortPopular})))
	assert.Equal(t, []string{"table", "chair", "car", "sword"}, ids(FilterModels(list, CatalogQuery{Sort: SortViews})))
	assert.Equal(t, []string{"table", "chair"}, ids(FilterModels(list, CatalogQuery{Category: "Furniture"})))
	assert.Equal(t, ids(FilterModels(list, CatalogQuery{})), ids(FilterModels(list, CatalogQuery{Category: CategoryAll})))

	t.Run("search covers title description and tags", func(t *testing.T) {
		assert.Equal(t, []string{"car"}, ids(FilterModels(list, CatalogQuery{Search: "VEHICLE"})))
		assert.Equal(t, []string{"table"}, ids(FilterModels(list, CatalogQuery{Search: "oak"})))
		assert.Equal(t, []string{"chair"}, ids(FilterModels(list, CatalogQuery{Search: "wood"})))
		assert.Empty(t, FilterModels(list, CatalogQuery{Search: "spaceship"}))
	})

	assert.Equal(t, "chair", list[0].ID, "input order is untouched")
}

func TestSummarizeModels(t *testing.T) {
	stats := SummarizeModels(catalogFixture())
	assert.Equal(t, CatalogStats{Models: 4, Downloads: 68, Views: 140, Likes: 9, Creators: 3}, stats)
	assert.Equal(t, CatalogStats{}, SummarizeModels(nil))
}

func TestRecentActivityAndTopModels(t *testing.T) {
	list := catalogFixture()
	for i := 0; i < 4; i++ {
		list = append(list, &models.Model{ID: "extra", CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
	}

	activity := RecentActivity(list)
	require.Len(t, activity, 5)
	assert.Equal(t, "sword", activity[0].ModelID)
	assert.Equal(t, "upload", activity[0].Type)

	top := TopModels(list)
	require.Len(t, top, 5)
	assert.Equal(t, "car", top[0].ID)
}

func TestRelatedModels(t *testing.T) {
	list := catalogFixture()
	list = append(list,
		&models.Model{ID: "sofa", Category: "furniture"},
		&models.Model{ID: "bed", Category: "furniture"},
		&models.Model{ID: "lamp", Category: "furniture"},
	)

	related := RelatedModels(list[0], list)
	assert.Equal(t, []string{"table", "sofa", "bed"}, ids(related))

	assert.Empty(t, RelatedModels(&models.Model{ID: "x"}, list))
	assert.Empty(t, RelatedModels(nil, list))
}
