package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildListQueryDefaults(t *testing.T) {
	q, args := BuildListQuery(RestaurantFilter{})
	assert.True(t, strings.HasSuffix(q, "FROM restaurants WHERE 1=1 ORDER BY id ASC"), q)
	assert.Empty(t, args)
}

func TestBuildListQueryComposesFiltersInOrder(t *testing.T) {
	q, args := BuildListQuery(RestaurantFilter{
		Featured:   true,
		Cuisine:    "Italian",
		PriceRange: "$$",
		Search:     "Trat",
		Sort:       SortRating,
		Limit:      5,
	})

	assert.Contains(t, q, "WHERE featured = 1 AND cuisine = ? AND price_range = ? AND (LOWER(name) LIKE ? OR LOWER(cuisine) LIKE ? OR LOWER(address) LIKE ?)")
	assert.True(t, strings.HasSuffix(q, "ORDER BY rating DESC, id ASC LIMIT ?"), q)
	assert.Equal(t, []any{"Italian", "$$", "%trat%", "%trat%", "%trat%", 5}, args)
}

func TestBuildListQueryNeverInterpolatesInput(t *testing.T) {
	evil := "x' OR '1'='1"
	q, args := BuildListQuery(RestaurantFilter{Cuisine: evil, Search: evil})
	assert.NotContains(t, q, evil)
	assert.NotContains(t, q, "'1'='1")
	assert.Equal(t, evil, args[0])
}

func TestBuildListQueryEscapesLikeWildcards(t *testing.T) {
	_, args := BuildListQuery(RestaurantFilter{Search: `50%_off\`})
	assert.Equal(t, `%50\%\_off\\%`, args[0])
}

func TestBuildListQuerySortByName(t *testing.T) {
	q, _ := BuildListQuery(RestaurantFilter{Sort: SortName})
	assert.True(t, strings.HasSuffix(q, "ORDER BY name ASC, id ASC"), q)
}
