package models

import "time"

// Experience is one recorded visit: a place, a date, and whatever the
// author wants to say about it. Mutation is owner-only; reads are public.
type Experience struct {
	ID          int64     `json:"experience_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"experience_date"`
	CreateDate  time.Time `json:"create_date"`
	Address     string    `json:"address"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// ExperienceDetail is an Experience enriched with everything the read
// endpoints attach: keyword names, rating aggregates and photos.
type ExperienceDetail struct {
	Experience
	Keywords      []string `json:"keywords"`
	AverageRating float64  `json:"average_rating"`
	RatingCount   int      `json:"rating_count"`
	OwnerRating   *int     `json:"owner_rating,omitempty"`
	CallerRating  *int     `json:"user_rating,omitempty"`
	Photos        []Photo  `json:"photos"`
	// PhotosFailed counts uploads the blob store rejected during the
	// request that produced this response. Never persisted.
	PhotosFailed int `json:"photos_failed,omitempty"`
}

// SearchResult is an ExperienceDetail annotated with the ranking signals
// the query computed for it.
type SearchResult struct {
	ExperienceDetail
	RelevanceScore int      `json:"relevance_score,omitempty"`
	DistanceKm     *float64 `json:"distance_km,omitempty"`
}

type Keyword struct {
	ID   int64  `json:"keyword_id"`
	Name string `json:"name"`
}

type Photo struct {
	ID           int64     `json:"photo_id"`
	ExperienceID int64     `json:"experience_id"`
	URL          string    `json:"url"`
	Caption      string    `json:"caption"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type Trip struct {
	ID              int64      `json:"trip_id"`
	UserID          string     `json:"user_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	CreateDate      time.Time  `json:"create_date"`
	ExperienceCount int        `json:"experience_count"`
}

// TripDetail carries a trip with its member experiences in display order.
type TripDetail struct {
	Trip
	Experiences []TripExperience `json:"experiences"`
}

type TripExperience struct {
	ExperienceID  int64   `json:"experience_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Address       string  `json:"address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	DisplayOrder  int     `json:"order"`
	AverageRating float64 `json:"average_rating"`
}

// PopularExperience is one row of the most-added leaderboard: how many
// trips include the experience, with the rating as a tiebreak signal.
type PopularExperience struct {
	Experience
	TimesAdded    int     `json:"times_added"`
	AverageRating float64 `json:"average_rating"`
}

// LatLng is a single coordinate pair as sent by clients.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is the viewport rectangle for map search, defined by its
// northeast and southwest corners.
type BoundingBox struct {
	NorthEast LatLng `json:"northEast"`
	SouthWest LatLng `json:"southWest"`
}

// PhotoUpload is one incoming photo: raw bytes plus presentation metadata.
// The bytes go to the blob store; only the resulting URL is persisted.
type PhotoUpload struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
	Caption     string `json:"caption"`
}

// CreateExperienceRequest is the composite create/update payload: the
// experience fields plus keywords, an optional owner rating and photos.
type CreateExperienceRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Date        string        `json:"experience_date"`
	Address     string        `json:"address"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Keywords    []string      `json:"keywords"`
	OwnerRating *int          `json:"user_rating"`
	Photos      []PhotoUpload `json:"photos"`
}

// UpdateExperienceRequest carries the composite update payload. Nil
// fields are left untouched; a non-nil Keywords slice replaces the full
// link set, and Photos only ever appends.
type UpdateExperienceRequest struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Date        *string       `json:"experience_date"`
	Address     *string       `json:"address"`
	Latitude    *float64      `json:"latitude"`
	Longitude   *float64      `json:"longitude"`
	Keywords    *[]string     `json:"keywords"`
	OwnerRating *int          `json:"user_rating"`
	Photos      []PhotoUpload `json:"photos"`
}

// RatingAggregate is everything the read side derives from the ratings
// table for one experience. Average is 0.0 when no ratings exist, never
// null.
type RatingAggregate struct {
	ExperienceID  int64   `json:"experience_id"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
	OwnerRating   *int    `json:"owner_rating,omitempty"`
}
