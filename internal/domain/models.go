package domain

import "auctions/internal/money"

type ListingStatus string

const (
	StatusActive ListingStatus = "ACTIVE"
	StatusClosed ListingStatus = "CLOSED"
)

// Categories is the fixed, ordered set a listing may belong to.
var Categories = []string{
	"Food",
	"Home Appliances",
	"Health",
	"Tools",
	"Books",
	"Entertainment",
	"Clothing",
	"Sporting Goods",
}

func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

type Listing struct {
	ID           int64         `db:"id" json:"id"`
	OwnerID      string        `db:"owner_id" json:"owner_id"`
	OwnerName    string        `db:"owner_name" json:"owner"`
	Title        string        `db:"title" json:"title"`
	Description  string        `db:"description" json:"description"`
	CurrentPrice money.Amount  `db:"current_price" json:"current_price"`
	ImageURL     string        `db:"image_url" json:"image_url"`
	Category     string        `db:"category" json:"category"`
	Status       ListingStatus `db:"status" json:"status"`
	WinnerID     *string       `db:"winner_id" json:"winner_id,omitempty"`
	WinnerName   *string       `db:"winner_name" json:"winner,omitempty"`
	CreatedAt    string        `db:"created_at" json:"created_at"`
}

func (l Listing) IsClosed() bool { return l.Status == StatusClosed }

// IsOwner is a pure predicate for display decisions. Operations that require
// ownership check it themselves.
func IsOwner(l Listing, userID string) bool {
	return userID != "" && l.OwnerID == userID
}

// NewListing carries the caller-supplied fields of a listing.
type NewListing struct {
	OwnerID       string
	Title         string
	Description   string
	StartingPrice money.Amount
	ImageURL      string
	Category      string
}

// Bid is append-only.
type Bid struct {
	ID         int64        `db:"id" json:"id"`
	ListingID  int64        `db:"listing_id" json:"listing_id"`
	BidderID   string       `db:"bidder_id" json:"bidder_id"`
	BidderName string       `db:"bidder_name" json:"bidder"`
	Amount     money.Amount `db:"amount" json:"amount"`
	CreatedAt  string       `db:"created_at" json:"created_at"`
}

type WatchEntry struct {
	ID        int64  `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	ListingID int64  `db:"listing_id" json:"listing_id"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

type Comment struct {
	ID         int64  `db:"id" json:"id"`
	ListingID  int64  `db:"listing_id" json:"listing_id"`
	AuthorID   string `db:"author_id" json:"author_id"`
	AuthorName string `db:"author_name" json:"author"`
	Text       string `db:"body" json:"text"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}
