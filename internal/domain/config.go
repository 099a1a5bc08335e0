package domain

// Profile stores one local account context.
type Profile struct {
	Name              string   `json:"name"`
	IsDefault         bool     `json:"is_default"`
	Location          Location `json:"location"`
	Token             string   `json:"token,omitempty"`
	SelectedAddressID string   `json:"selected_address_id,omitempty"`
}

// Config stores all local profiles.
type Config struct {
	Profiles []Profile `json:"profiles"`
}
