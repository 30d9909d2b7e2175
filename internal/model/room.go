package model

// RoomTypeConfig is one entry of the static room-type table supplied at
// startup. The table is immutable for the life of the process; occupancy
// state lives on the generated Room records, not here.
type RoomTypeConfig struct {
	DisplayName  string  `mapstructure:"display_name" json:"display_name"`
	Capacity     int     `mapstructure:"capacity" json:"capacity"`
	PricePerStay float64 `mapstructure:"price_per_stay" json:"price_per_stay"`
	NumberPrefix string  `mapstructure:"number_prefix" json:"number_prefix"`
}

// Room is a single numbered room. Occupied is true iff PatientID is set;
// PatientID is a non-owning reference to the occupant in the registry.
type Room struct {
	Number    string `json:"number"`
	Occupied  bool   `json:"occupied"`
	PatientID string `json:"patient_id,omitempty"`
}

// RoomStats holds derived occupancy counts for one room type.
type RoomStats struct {
	Total     int `json:"total"`
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
}
