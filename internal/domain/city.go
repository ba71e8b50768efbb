package domain

import (
	"time"

	"github.com/google/uuid"
)

type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type City struct {
	ID       uuid.UUID `json:"id"`
	CityName string    `json:"cityName"`
	Country  string    `json:"country"`
	Emoji    string    `json:"emoji"`
	Date     time.Time `json:"date"`
	Notes    string    `json:"notes"`
	Position Position  `json:"position"`
	Images   []string  `json:"images"`
}

// Owner is a user who has visited a city, as shown next to that city.
// It is derived on every listing and never persisted.
type Owner struct {
	Username string `json:"username"`
	Color    string `json:"color"`
}

type AggregatedCity struct {
	City
	Owners []Owner `json:"owners"`
}
