// Package model contains domain models passed between layers.
package model

// Place is a venue analysed by the dashboard. Only ID and Name are guaranteed.
type Place struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Locality    string   `json:"locality,omitempty"`
	CityName    string   `json:"city_name,omitempty"`
	Address     string   `json:"address,omitempty"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
}
