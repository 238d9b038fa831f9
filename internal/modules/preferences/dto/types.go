package dto

import "time"

type ListOutput struct {
	Name      string    `json:"name"`
	Sites     []string  `json:"sites"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PreferencesOutput struct {
	Productive  ListOutput `json:"productive"`
	Distracting ListOutput `json:"distracting"`
	Blocked     ListOutput `json:"blocked"`
}

type SiteInput struct {
	List string
	Site string
}

// ReplaceListInput overwrites a whole list, keeping the supplied timestamp.
type ReplaceListInput struct {
	List      string
	Sites     []string
	UpdatedAt time.Time
}

type ClassifyOutput struct {
	Domain   string `json:"domain"`
	Category string `json:"category"`
}
