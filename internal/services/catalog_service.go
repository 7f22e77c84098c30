package services

import (
	"context"
	"strings"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
)

type CatalogService struct {
	itemsRepo    models.ItemsRepo
	bookingsRepo models.BookingsRepo
}

func NewCatalogService(itemsRepo models.ItemsRepo, bookingsRepo models.BookingsRepo) *CatalogService {
	return &CatalogService{
		itemsRepo:    itemsRepo,
		bookingsRepo: bookingsRepo,
	}
}

func (cs *CatalogService) ListAvailable(ctx context.Context) ([]*models.Item, error) {
	return cs.itemsRepo.ListAvailableItems(ctx)
}

func (cs *CatalogService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.ValidationError("item ID cannot be empty")
	}
	return cs.itemsRepo.GetItemByID(ctx, id)
}

// GetBookableItem is GetItem restricted to items currently marked available.
func (cs *CatalogService) GetBookableItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := cs.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, models.ValidationError("%s is not available for booking", item.Name)
	}
	return item, nil
}

// BookedSlots lists the taken slots for an item on a date so the client can grey them out.
func (cs *CatalogService) BookedSlots(ctx context.Context, itemID, date string) ([]models.BookedSlot, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, models.ValidationError("item ID cannot be empty")
	}
	if _, err := models.ParseBookingDate(date); err != nil {
		return nil, err
	}
	return cs.bookingsRepo.ListBookedSlots(ctx, itemID, date)
}
