package models

import (
	"context"
	"encoding/json"
	"fmt"
)

// Item is a bookable ride or package. Read-only from the API's point of view.
type Item struct {
	ID              string  `json:"ride_id"`
	Name            string  `json:"ride_name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	Available       bool    `json:"available"`
}

// TotalFor is the price for a party of the given size.
func (i *Item) TotalFor(partySize int) float64 {
	if partySize < 1 {
		partySize = 1
	}
	return i.Price * float64(partySize)
}

type ItemsRepo interface {
	ListAvailableItems(ctx context.Context) ([]*Item, error)
	GetItemByID(ctx context.Context, id string) (*Item, error)
}

func (su *SupabaseRepo) ListAvailableItems(ctx context.Context) ([]*Item, error) {
	data, _, err := su.supabaseClient.From(RidesTable).
		Select("*", "", false).
		Eq("available", "true").
		Execute()
	if err != nil {
		return nil, PersistenceError(err, "failed to get rides")
	}

	var items []*Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rides: %w", err)
	}
	if items == nil {
		items = []*Item{}
	}
	return items, nil
}

func (su *SupabaseRepo) GetItemByID(ctx context.Context, id string) (*Item, error) {
	data, _, err := su.supabaseClient.From(RidesTable).
		Select("*", "", false).
		Eq("ride_id", id).
		Execute()
	if err != nil {
		return nil, PersistenceError(err, "failed to get ride")
	}

	// Supabase returns an array even for single results
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ride rows: %w", err)
	}
	if len(items) == 0 {
		return nil, NotFoundError("ride %s not found", id)
	}
	return &items[0], nil
}
