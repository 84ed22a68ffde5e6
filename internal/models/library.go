package models

// QualityProfile is a library quality profile.
type QualityProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Label is a library tag. Radarr calls the text "label".
type Label struct {
	ID   int    `json:"id"`
	Text string `json:"label"`
}

// Holding is a title already present in the library.
type Holding struct {
	ID         int    `json:"id"`
	ExternalID int64  `json:"tmdbId"`
	Title      string `json:"title"`
}

// Exclusion is a title the library operator marked as never-add.
type Exclusion struct {
	ID         int    `json:"id"`
	ExternalID int64  `json:"tmdbId"`
	Title      string `json:"movieTitle"`
}

// AddRequest carries everything a library add needs.
type AddRequest struct {
	Movie               MovieDetail
	QualityProfileID    int
	LabelIDs            []int
	Monitored           bool
	RootFolder          string
	MinimumAvailability string
	SearchOnAdd         bool
}
