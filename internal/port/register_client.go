package port

import (
	"context"

	"github.com/rl1809/pos-register/internal/core/domain"
)

type CatalogClient interface {
	// SearchProducts returns at most limit products matching query; an empty
	// slice means no match
	SearchProducts(ctx context.Context, query string, limit int) ([]domain.Product, error)
}

type CheckoutClient interface {
	// Checkout submits the sale exactly once. A business rejection comes back
	// as a result with Success false; transport failures as an error.
	Checkout(ctx context.Context, req domain.SaleRequest) (domain.SaleResult, error)
}
