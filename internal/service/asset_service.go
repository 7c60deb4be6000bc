package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openlot/auctionhouse/internal/domain"
	"github.com/openlot/auctionhouse/internal/store"
)

// AssetService handles listing submissions and the ops review queue.  Assets
// enter as pending and only an approved asset can back an auction.
type AssetService struct {
	store store.Store
}

// NewAssetService creates an AssetService.
func NewAssetService(st store.Store) *AssetService {
	return &AssetService{store: st}
}

// CreateAsset submits a new asset for review.
func (s *AssetService) CreateAsset(ctx context.Context, ownerID uuid.UUID, title string) (*domain.Asset, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrAssetTitleRequired
	}

	now := time.Now().UTC()
	asset := &domain.Asset{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Status:    domain.AssetStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateAsset(ctx, asset); err != nil {
		return nil, fmt.Errorf("asset_service.CreateAsset: %w", err)
	}
	return asset, nil
}

// ReviewAsset approves or rejects a pending asset.  Review is a backoffice
// operation and requires an admin or ops role.
func (s *AssetService) ReviewAsset(ctx context.Context, reviewer *domain.User, assetID uuid.UUID, approve bool) (*domain.Asset, error) {
	if !reviewer.Role.CanReviewAssets() {
		return nil, domain.ErrForbidden
	}

	newStatus := domain.AssetStatusRejected
	if approve {
		newStatus = domain.AssetStatusApproved
	}

	var reviewed *domain.Asset
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		asset, err := tx.GetAsset(ctx, assetID)
		if err != nil {
			return err
		}
		if asset.Status != domain.AssetStatusPending {
			return domain.ErrAssetAlreadyReviewed
		}
		if err := tx.UpdateAssetStatus(ctx, assetID, newStatus, reviewer.ID); err != nil {
			return err
		}
		asset.Status = newStatus
		reviewerID := reviewer.ID
		asset.ReviewedBy = &reviewerID
		asset.UpdatedAt = time.Now().UTC()
		reviewed = asset
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

// GetAsset fetches an asset by ID.
func (s *AssetService) GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	return s.store.GetAsset(ctx, id)
}

// ListAssets returns paginated assets filtered by status ("" = all).
func (s *AssetService) ListAssets(ctx context.Context, status domain.AssetStatus, limit, offset int) ([]*domain.Asset, error) {
	assets, err := s.store.ListAssets(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("asset_service.ListAssets: %w", err)
	}
	return assets, nil
}
