package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Sort orders accepted by RestaurantFilter.
const (
	SortNone   = ""
	SortRating = "rating"
	SortName   = "name"
)

// RestaurantFilter defines the optional, composable catalog filters.
// Zero values mean "not set"; Limit 0 means unlimited.
type RestaurantFilter struct {
	Featured   bool
	Cuisine    string
	PriceRange string
	Search     string
	Sort       string
	Limit      int
}

type RestaurantRepo struct{ db *sql.DB }

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

const restaurantColumns = `id, name, cuisine, rating, price_range, address, description,
	image, phone, website, opening_hours, featured, gallery, menu, amenities, reviews`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BuildListQuery composes the catalog SELECT. Filters are applied in a fixed
// order (featured, cuisine, priceRange, search) and every user value is a
// bound argument.
func BuildListQuery(f RestaurantFilter) (string, []any) {
	where := []string{}
	args := []any{}

	if f.Featured {
		where = append(where, "featured = 1")
	}
	if f.Cuisine != "" {
		where = append(where, "cuisine = ?")
		args = append(args, f.Cuisine)
	}
	if f.PriceRange != "" {
		where = append(where, "price_range = ?")
		args = append(args, f.PriceRange)
	}
	if f.Search != "" {
		pat := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(cuisine) LIKE ? OR LOWER(address) LIKE ?)")
		args = append(args, pat, pat, pat)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	order := "id ASC"
	switch f.Sort {
	case SortRating:
		order = "rating DESC, id ASC"
	case SortName:
		order = "name ASC, id ASC"
	}

	q := "SELECT " + restaurantColumns + " FROM restaurants WHERE " + cond + " ORDER BY " + order
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return q, args
}

// List returns the restaurants matching f, never nil.
func (r *RestaurantRepo) List(ctx context.Context, f RestaurantFilter) ([]model.Restaurant, error) {
	q, args := BuildListQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	out := []model.Restaurant{}
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns ErrNotFound when no row matches.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (model.Restaurant, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+restaurantColumns+" FROM restaurants WHERE id = ?", id)
	rest, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Restaurant{}, ErrNotFound
	}
	return rest, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(s scanner) (model.Restaurant, error) {
	var (
		rest                               model.Restaurant
		desc, image, phone, website, hours sql.NullString
		gallery, menu, amenities, reviews  []byte
	)
	err := s.Scan(&rest.ID, &rest.Name, &rest.Cuisine, &rest.Rating, &rest.PriceRange, &rest.Address,
		&desc, &image, &phone, &website, &hours, &rest.Featured,
		&gallery, &menu, &amenities, &reviews)
	if err != nil {
		return model.Restaurant{}, err
	}
	rest.Description = desc.String
	rest.Image = image.String
	rest.Phone = phone.String
	rest.Website = website.String
	rest.OpeningHours = hours.String
	rest.Gallery = rawJSON(gallery)
	rest.Menu = rawJSON(menu)
	rest.Amenities = rawJSON(amenities)
	rest.Reviews = rawJSON(reviews)
	return rest, nil
}

// rawJSON copies b so it outlives the driver buffer; NULL or invalid JSON
// is dropped.
func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 || !json.Valid(b) {
		return nil
	}
	return append(json.RawMessage(nil), b...)
}
