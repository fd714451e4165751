package pricing

import (
	"context"
	"fmt"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/pkg/logger"
)

// Service resolves effective prices and manages price tiers.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new pricing service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Resolve computes the effective unit price for a product at an outlet,
// optionally for a known customer. Pure read; the result is frozen into
// order lines at order creation.
//
// Tier priority: customer tier, then outlet default tier, then the
// business default tier. Price priority within the resolved tier:
// outlet override, then tier-global price, then the product base price.
func (s *Service) Resolve(ctx context.Context, productID, outletID id.ID, customerID *id.ID) (*PriceQuote, error) {
	product, err := s.repo.GetProductPricing(ctx, productID)
	if err != nil {
		return nil, err
	}

	quote := &PriceQuote{
		ProductID:      product.ProductID,
		BasePrice:      product.BasePrice,
		CostPrice:      product.CostPrice,
		TaxRate:        product.TaxRate,
		EffectivePrice: product.BasePrice,
		TierSource:     TierSourceNone,
		PriceSource:    PriceSourceBasePrice,
	}

	tier, source, err := s.resolveTier(ctx, outletID, customerID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return quote, nil
	}

	quote.PriceTier = tier
	quote.TierSource = source

	// Outlet override beats the tier-global price.
	price, err := s.repo.GetTierPrice(ctx, productID, tier.ID, &outletID)
	if err != nil {
		return nil, fmt.Errorf("get outlet tier price: %w", err)
	}
	if price != nil {
		quote.EffectivePrice = *price
		quote.PriceSource = PriceSourceOutletTier
		return quote, nil
	}

	price, err = s.repo.GetTierPrice(ctx, productID, tier.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("get global tier price: %w", err)
	}
	if price != nil {
		quote.EffectivePrice = *price
		quote.PriceSource = PriceSourceGlobalTier
		return quote, nil
	}

	// Tier resolved but carries no price for this product.
	return quote, nil
}

func (s *Service) resolveTier(ctx context.Context, outletID id.ID, customerID *id.ID) (*PriceTier, TierSource, error) {
	if customerID != nil && !id.IsNil(*customerID) {
		tier, err := s.repo.GetCustomerTier(ctx, *customerID)
		if err != nil {
			return nil, TierSourceNone, fmt.Errorf("get customer tier: %w", err)
		}
		if tier != nil {
			return tier, TierSourceCustomer, nil
		}
	}

	tier, err := s.repo.GetOutletDefaultTier(ctx, outletID)
	if err != nil {
		return nil, TierSourceNone, fmt.Errorf("get outlet tier: %w", err)
	}
	if tier != nil {
		return tier, TierSourceOutlet, nil
	}

	tier, err = s.repo.GetDefaultTier(ctx)
	if err != nil {
		return nil, TierSourceNone, fmt.Errorf("get default tier: %w", err)
	}
	if tier != nil {
		return tier, TierSourceDefault, nil
	}

	return nil, TierSourceNone, nil
}

// CreateTier creates a price tier. Setting IsDefault clears the flag
// on all other tiers in the same transaction.
func (s *Service) CreateTier(ctx context.Context, tier *PriceTier) error {
	if err := tier.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if tier.IsDefault {
			if err := s.repo.ClearDefaultTier(ctx); err != nil {
				return fmt.Errorf("clear default tier: %w", err)
			}
		}
		if err := s.repo.CreateTier(ctx, tier); err != nil {
			return fmt.Errorf("create tier: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "price tier created", "id", tier.ID, "code", tier.Code)
	return nil
}

// SetDefaultTier makes the given tier the single default.
func (s *Service) SetDefaultTier(ctx context.Context, tierID id.ID) error {
	if id.IsNil(tierID) {
		return apperror.NewValidation("tier id is required")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetTierByID(ctx, tierID); err != nil {
			return err
		}
		if err := s.repo.ClearDefaultTier(ctx); err != nil {
			return fmt.Errorf("clear default tier: %w", err)
		}
		if err := s.repo.MarkTierDefault(ctx, tierID); err != nil {
			return fmt.Errorf("mark tier default: %w", err)
		}
		return nil
	})
}

// ListTiers returns all tiers for the business.
func (s *Service) ListTiers(ctx context.Context) ([]*PriceTier, error) {
	return s.repo.ListTiers(ctx)
}
