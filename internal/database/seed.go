package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/table-reservation/internal/model"
)

// SeedFile is the YAML catalog loaded by cmd/migrate.
type SeedFile struct {
	Restaurants []SeedRestaurant `yaml:"restaurants"`
}

type SeedRestaurant struct {
	Name         string  `yaml:"name"`
	Cuisine      string  `yaml:"cuisine"`
	Rating       float64 `yaml:"rating"`
	PriceRange   string  `yaml:"priceRange"`
	Address      string  `yaml:"address"`
	Description  string  `yaml:"description"`
	Image        string  `yaml:"image"`
	Phone        string  `yaml:"phone"`
	Website      string  `yaml:"website"`
	OpeningHours string  `yaml:"openingHours"`
	Featured     bool    `yaml:"featured"`
	Gallery      any     `yaml:"gallery"`
	Menu         any     `yaml:"menu"`
	Amenities    any     `yaml:"amenities"`
	Reviews      any     `yaml:"reviews"`
}

var validPriceRanges = map[string]bool{"$": true, "$$": true, "$$$": true, "$$$$": true}

// LoadSeedFile reads and validates a catalog file.
func LoadSeedFile(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML catalog data. Every entry is checked and all
// problems are reported together.
func ParseSeed(data []byte) (SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	var errs []error
	seen := make(map[string]bool, len(f.Restaurants))
	for i, r := range f.Restaurants {
		at := fmt.Sprintf("restaurants[%d]", i)
		switch {
		case strings.TrimSpace(r.Name) == "":
			errs = append(errs, fmt.Errorf("%s: name is required", at))
		case seen[strings.ToLower(r.Name)]:
			errs = append(errs, fmt.Errorf("%s: duplicate name %q", at, r.Name))
		}
		seen[strings.ToLower(r.Name)] = true
		if strings.TrimSpace(r.Cuisine) == "" {
			errs = append(errs, fmt.Errorf("%s: cuisine is required", at))
		}
		if !validPriceRanges[r.PriceRange] {
			errs = append(errs, fmt.Errorf("%s: priceRange %q must be one of $, $$, $$$, $$$$", at, r.PriceRange))
		}
		if r.Rating < 0 || r.Rating > 5 {
			errs = append(errs, fmt.Errorf("%s: rating %.1f out of range 0-5", at, r.Rating))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return SeedFile{}, err
	}
	return f, nil
}

// Row converts a seed entry into its table row. Nested YAML values become
// JSON documents.
func (r SeedRestaurant) Row() (RestaurantTable, error) {
	row := RestaurantTable{
		Name:         strings.TrimSpace(r.Name),
		Cuisine:      strings.TrimSpace(r.Cuisine),
		Rating:       r.Rating,
		PriceRange:   r.PriceRange,
		Address:      r.Address,
		Description:  optional(r.Description),
		Image:        optional(r.Image),
		Phone:        optional(r.Phone),
		Website:      optional(r.Website),
		OpeningHours: optional(r.OpeningHours),
		Featured:     r.Featured,
	}
	for _, f := range []struct {
		name string
		in   any
		out  **string
	}{
		{"gallery", r.Gallery, &row.Gallery},
		{"menu", r.Menu, &row.Menu},
		{"amenities", r.Amenities, &row.Amenities},
		{"reviews", r.Reviews, &row.Reviews},
	} {
		if f.in == nil {
			continue
		}
		b, err := json.Marshal(f.in)
		if err != nil {
			return RestaurantTable{}, fmt.Errorf("%s of %q: %w", f.name, r.Name, err)
		}
		s := string(b)
		*f.out = &s
	}
	return row, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// SeedRestaurants upserts the catalog by restaurant name and returns the
// number of entries written.
func SeedRestaurants(db *gorm.DB, f SeedFile) (int, error) {
	rows := make([]RestaurantTable, 0, len(f.Restaurants))
	for _, r := range f.Restaurants {
		row, err := r.Row()
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cuisine", "rating", "price_range", "address", "description", "image", "phone",
			"website", "opening_hours", "featured", "gallery", "menu", "amenities", "reviews",
		}),
	}).Create(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("seed restaurants: %w", err)
	}
	return len(rows), nil
}

// EnsureAdmin creates the admin account or promotes an existing user with
// the same email. passwordHash is only used on creation.
func EnsureAdmin(db *gorm.DB, name, email, passwordHash string) (created bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var existing UserTable
	err = db.Where("email = ?", email).Take(&existing).Error
	switch {
	case err == nil:
		if existing.Role == model.RoleAdmin {
			return false, nil
		}
		if err := db.Model(&existing).Update("role", model.RoleAdmin).Error; err != nil {
			return false, fmt.Errorf("promote admin: %w", err)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		u := UserTable{Name: name, Email: email, PasswordHash: passwordHash, Role: model.RoleAdmin}
		if err := db.Omit("CreatedAt", "UpdatedAt").Create(&u).Error; err != nil {
			return false, fmt.Errorf("create admin: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("find admin: %w", err)
	}
}
