package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Places       int           // Places to probe; 0 means every place returned by search
	Viewers      int           // Simulated viewers running the selection flow
	Rounds       int           // Selections per viewer
	Workers      int           // Concurrent workers
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between selection polls
	PollTimeout  time.Duration // Give up waiting for a selection after this long
	Verbose      bool          // Log every violation as it is found
}

// View mirrors the dashboard JSON served by the API.
type View struct {
	PlaceID     string `json:"place_id"`
	State       string `json:"state"`
	Generation  uint64 `json:"generation"`
	Granularity string `json:"granularity"`
	Impressions struct {
		Likes    int    `json:"likes"`
		Dislikes int    `json:"dislikes"`
		Error    string `json:"error"`
	} `json:"impressions"`
	Timeline struct {
		Buckets []Bucket `json:"buckets"`
		Error   string   `json:"error"`
	} `json:"timeline"`
	Attributes struct {
		Rows []struct {
			Attribute string `json:"attribute"`
			Likes     int    `json:"likesData"`
			Dislikes  int    `json:"dislikesData"`
		} `json:"rows"`
		Error string `json:"error"`
	} `json:"attributes"`
}

// Bucket is one timeline point.
type Bucket struct {
	Label              string `json:"bucket"`
	DateRange          string `json:"date_range"`
	Likes              int    `json:"likes"`
	Dislikes           int    `json:"dislikes"`
	CumulativeLikes    int    `json:"cumulative_likes"`
	CumulativeDislikes int    `json:"cumulative_dislikes"`
}

// Place is the subset of a place the probe needs.
type Place struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type placesResponse struct {
	Places []Place `json:"places"`
}

type ticket struct {
	PlaceID    string `json:"place_id"`
	Generation uint64 `json:"generation"`
}

var granularities = []string{"weekly", "monthly"}
