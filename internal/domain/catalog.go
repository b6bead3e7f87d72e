package domain

import (
	"fmt"
	"time"
)

// SalonService is a bookable service offering. Bookings snapshot its title
// and price at creation time, so catalog edits never rewrite history.
type SalonService struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Duration    string    `json:"duration"`
	Features    []string  `json:"features"`
	ImageURL    string    `json:"image_url,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *SalonService) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("service title is required")
	}
	if s.Description == "" {
		return fmt.Errorf("service description is required")
	}
	return nil
}

type Testimonial struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"image_url,omitempty"`
	Service   string    `json:"service"`
	Date      time.Time `json:"date"`
	Approved  bool      `json:"approved"`
	Featured  bool      `json:"featured"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Testimonial) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("customer name is required")
	}
	if t.Rating < 1 || t.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	if len(t.Text) < 10 {
		return fmt.Errorf("testimonial text must be at least 10 characters")
	}
	if t.Service == "" {
		return fmt.Errorf("service is required")
	}
	return nil
}

type MediaType string

const (
	MediaImage MediaType = "IMAGE"
	MediaVideo MediaType = "VIDEO"
)

type Media struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      MediaType `json:"type"`
	URL       string    `json:"url,omitempty"`
	BeforeURL string    `json:"before_url,omitempty"`
	AfterURL  string    `json:"after_url,omitempty"`
	Category  string    `json:"category"`
	Alt       string    `json:"alt"`
	Size      string    `json:"size,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Media) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("media name is required")
	}
	if m.Type != MediaImage && m.Type != MediaVideo {
		return fmt.Errorf("media type must be IMAGE or VIDEO")
	}
	if m.Category == "" {
		return fmt.Errorf("category is required")
	}
	return nil
}
