package domain

// Place is the summary shape the rendering collaborator consumes.
type Place struct {
	ID         string
	Name       string
	Rating     float64 // 0-10
	Price      int     // tier 0-4
	OpenNow    bool
	Distance   int // meters
	ImageURL   string
	Address    string
	Categories []string
}

// SearchParams are the structured search parameters assembled from the
// message text and classifier slots.
type SearchParams struct {
	Query    string
	Location *Location
	Radius   int // meters, 0 = collaborator default
	OpenNow  bool
	MinPrice int // 1-4, 0 = unset
	MaxPrice int // 1-4, 0 = unset
	Limit    int
}
