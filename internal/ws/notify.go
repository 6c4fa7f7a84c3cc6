package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"bds-sync/internal/domain/listing"
)

type SearchProgressEvent struct {
	Type      string `json:"type"`
	Query     string `json:"query"`
	Phase     string `json:"phase"`
	Timestamp string `json:"timestamp"`
}

type ListingMatchEvent struct {
	Type       string `json:"type"`
	SearchName string `json:"search_name"`
	ListingID  string `json:"listing_id"`
	Title      string `json:"title"`
	District   string `json:"district"`
	PriceText  string `json:"price_text"`
	Timestamp  string `json:"timestamp"`
}

// Notifier adapts the hub to the usecase-facing notification
// interfaces. All sends are fire-and-forget.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) SearchProgress(query, phase string) {
	if n == nil || n.hub == nil {
		return
	}
	evt := SearchProgressEvent{
		Type:      "search_progress",
		Query:     query,
		Phase:     phase,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if b, err := json.Marshal(evt); err == nil {
		n.hub.Broadcast(b)
	}
}

func (n *Notifier) NewListingMatch(userID uuid.UUID, searchName string, l listing.Listing) {
	if n == nil || n.hub == nil {
		return
	}
	evt := ListingMatchEvent{
		Type:       "listing_match",
		SearchName: searchName,
		ListingID:  l.ID,
		Title:      l.Title,
		District:   l.District,
		PriceText:  l.PriceText,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if b, err := json.Marshal(evt); err == nil {
		n.hub.SendToUser(userID, b)
	}
}
