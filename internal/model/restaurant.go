package model

import "encoding/json"

// Restaurant is a catalog entry. It is read-only for the API; rows are
// loaded by the migrate tool from the seed file.
//
// Gallery, Menu, Amenities and Reviews are stored as JSON columns and
// passed through to clients untouched.
type Restaurant struct {
	ID           uint64          `json:"id"`
	Name         string          `json:"name"`
	Cuisine      string          `json:"cuisine"`
	Rating       float64         `json:"rating"`
	PriceRange   string          `json:"priceRange"`
	Address      string          `json:"address"`
	Description  string          `json:"description"`
	Image        string          `json:"image,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	Website      string          `json:"website,omitempty"`
	OpeningHours string          `json:"openingHours,omitempty"`
	Featured     bool            `json:"featured"`
	Gallery      json.RawMessage `json:"gallery,omitempty"`
	Menu         json.RawMessage `json:"menu,omitempty"`
	Amenities    json.RawMessage `json:"amenities,omitempty"`
	Reviews      json.RawMessage `json:"reviews,omitempty"`
}

// TimeSlot describes the availability of one bookable time on a date.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	// Remaining is -1 when slots are unlimited.
	Remaining int `json:"remaining"`
}
