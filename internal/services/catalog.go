package services

import (
	"sort"
	"strings"
	"time"

	"modelhub-backend/internal/models"
)

// Sort orders accepted by FilterModels
const (
	SortNewest    = "newest"
	SortPopular   = "popular"
	SortDownloads = "downloads"
	SortViews     = "views"

	CategoryAll = "all"

	recentActivityLimit = 5
	topModelsLimit      = 5
	relatedModelsLimit  = 3
)

// CatalogQuery narrows and orders an in-memory model list
type CatalogQuery struct {
	Search   string
	Category string
	Sort     string
}

// CatalogStats summarizes a model list
type CatalogStats struct {
	Models    int   `json:"models"`
	Downloads int64 `json:"downloads"`
	Views     int64 `json:"views"`
	Likes     int64 `json:"likes"`
	Creators  int   `json:"creators"`
}

// Activity is one entry of a dashboard activity feed
type Activity struct {
	ModelID string    `json:"model_id"`
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
}

// FilterModels applies search, category and sort to a copy of list
func FilterModels(list []*models.Model, q CatalogQuery) []*models.Model {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.ToLower(strings.TrimSpace(q.Category))

	result := make([]*models.Model, 0, len(list))
	for _, m := range list {
		if search != "" && !matchesSearch(m, search) {
			continue
		}
		if category != "" && category != CategoryAll && m.Category != category {
			continue
		}
		result = append(result, m)
	}

	switch q.Sort {
	case SortPopular, SortDownloads:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].DownloadsCount > result[j].DownloadsCount
		})
	case SortViews:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].ViewCount > result[j].ViewCount
		})
	case SortNewest, "":
		sortNewest(result)
	}

	return result
}

func matchesSearch(m *models.Model, search string) bool {
	if strings.Contains(strings.ToLower(m.Title), search) ||
		strings.Contains(strings.ToLower(m.Description), search) {
		return true
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func sortNewest(list []*models.Model) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// SummarizeModels totals counters across list
func SummarizeModels(list []*models.Model) CatalogStats {
	stats := CatalogStats{Models: len(list)}
	creators := make(map[string]struct{})
	for _, m := range list {
		stats.Downloads += m.DownloadsCount
		stats.Views += m.ViewCount
		stats.Likes += m.LikesCount
		creators[m.UserID] = struct{}{}
	}
	stats.Creators = len(creators)
	return stats
}

// RecentActivity lists the newest uploads in list
func RecentActivity(list []*models.Model) []Activity {
	sorted := append([]*models.Model(nil), list...)
	sortNewest(sorted)
	if len(sorted) > recentActivityLimit {
		sorted = sorted[:recentActivityLimit]
	}

	activity := make([]Activity, 0, len(sorted))
	for _, m := range sorted {
		activity = append(activity, Activity{
			ModelID: m.ID,
			Type:    "upload",
			Title:   m.Title,
			Date:    m.CreatedAt,
		})
	}
	return activity
}

// TopModels returns the most downloaded models in list
func TopModels(list []*models.Model) []*models.Model {
	top := FilterModels(list, CatalogQuery{Sort: SortDownloads})
	if len(top) > topModelsLimit {
		top = top[:topModelsLimit]
	}
	return top
}

// RelatedModels returns models sharing the category of target
func RelatedModels(target *models.Model, candidates []*models.Model) []*models.Model {
	related := make([]*models.Model, 0, relatedModelsLimit)
	if target == nil || target.Category == "" {
		return related
	}
	for _, m := range candidates {
		if m.ID == target.ID || m.Category != target.Category {
			continue
		}
		related = append(related, m)
		if len(related) == relatedModelsLimit {
			break
		}
	}
	return related
}
