package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/rl1809/pos-register/internal/adapter/wire"
	"github.com/rl1809/pos-register/internal/core/domain"
)

// LoadSeed reads a JSON array of products in the search response format.
func LoadSeed(path string) ([]domain.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var items []wire.ProductJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	seen := make(map[int64]bool, len(items))
	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			return nil, fmt.Errorf("seed file: duplicate product id %d", item.ID)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("seed file: product %d has a negative price", item.ID)
		}
		seen[item.ID] = true
		products = append(products, wire.ProductFromJSON(item))
	}
	return products, nil
}

func SampleProducts() []domain.Product {
	p := func(id int64, name, price string, stock int, barcode string) domain.Product {
		return domain.Product{
			ID:             id,
			Name:           name,
			UnitPrice:      decimal.RequireFromString(price),
			AvailableStock: stock,
			Barcode:        barcode,
		}
	}

	return []domain.Product{
		p(1, "Coffee 500g", "18.90", 40, "7891000100103"),
		p(2, "Rice 5kg", "25.90", 25, "7896006711155"),
		p(3, "Black beans 1kg", "8.49", 60, "7896102000016"),
		p(4, "Whole milk 1L", "4.99", 120, "7891025101154"),
		p(5, "Sugar 1kg", "4.29", 80, "7891910000197"),
		p(6, "Soybean oil 900ml", "7.79", 50, "7891107101621"),
		p(7, "French bread", "0.75", 200, ""),
		p(8, "Coconut water 1L", "9.50", 15, "7896016601231"),
		p(9, "Chocolate bar", "5.60", 3, "7622300991326"),
		p(10, "Seasonal panettone", "29.90", 0, "7891000053508"),
	}
}
