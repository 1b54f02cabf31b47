package models

import "time"

// About holds information about the health center. Multiple entries can exist;
// anonymous visitors only see the ones marked active.
type About struct {
	ID                 string
	Title              string
	BannerTitle        string
	BannerImages       []string // URLs, up to three
	BannerDescriptions []string // up to three
	WelcomeMessage     string
	ShortDescription   string
	Mission            string
	Vision             string
	History            string
	Description        string
	EstablishedYear    *int
	Phone              string
	Email              string
	Address            string
	WorkingHours       string
	Active             bool
	UpdatedAt          time.Time
}

// HomePage is the landing-page content block.
type HomePage struct {
	ID                 string
	BannerTitle        string
	BannerImages       []string
	BannerDescriptions []string
	WelcomeMessage     string
	ShortDescription   string
	Mission            string
	Vision             string
	ImageURL           string
	VideoEmbed         string
	UpdatedAt          time.Time
}

// Content is a freestanding rich-text entry.
type Content struct {
	ID        string
	Heading   string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PortfolioCategory groups portfolio entries.
type PortfolioCategory struct {
	ID          string
	Name        string
	Description string
}

// Portfolio is a showcase entry. CategoryID is nulled when its category is
// deleted, mirroring ON DELETE SET NULL.
type Portfolio struct {
	ID          string
	Title       string
	CategoryID  *string
	Description string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
