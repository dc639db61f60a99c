package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/adapter/remote"
	"github.com/rl1809/pos-register/internal/config"
	"github.com/rl1809/pos-register/internal/core/domain"
)

const (
	productID     = int64(9)
	totalRequests = 50
)

// Fires concurrent one-unit sales of the same product at a running register
// and checks that it never sells more than it had in stock.
func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.NewViper())
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	client := remote.NewHTTPClient(cfg.BackendURL, remote.Options{}, zap.NewNop())

	product, err := findProduct(ctx, client, productID)
	if err != nil {
		log.Fatalf("failed to look up product %d: %v", productID, err)
	}
	initialStock := product.AvailableStock

	var successCount, rejectCount, errorCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(terminal int) {
			defer wg.Done()

			line := domain.CartLine{
				ProductID:      product.ID,
				Name:           product.Name,
				UnitPrice:      product.UnitPrice,
				Quantity:       1,
				StockAtAddTime: product.AvailableStock,
			}
			payment := domain.ComputePayment(line.Subtotal(), domain.PaymentCard, "", true)
			req := domain.NewSaleRequest(uuid.NewString(), fmt.Sprintf("stress-%d", terminal),
				[]domain.CartLine{line}, payment, time.Now())

			res, err := client.Checkout(ctx, req)
			switch {
			case err != nil:
				errorCount.Add(1)
			case res.Success:
				successCount.Add(1)
			default:
				rejectCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := int(successCount.Load())
	rejected := int(rejectCount.Load())

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Product:          %d %s\n", product.ID, product.Name)
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Settled:          %d\n", success)
	fmt.Printf("Rejected:         %d\n", rejected)
	fmt.Printf("Transport Errors: %d\n", errorCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	expected := min(initialStock, totalRequests)
	if success == expected && rejected == totalRequests-expected {
		fmt.Printf("PASS: exactly %d sales settled, %d rejected\n", expected, rejected)
	} else {
		fmt.Printf("FAIL: expected %d settled/%d rejected, got %d/%d\n",
			expected, totalRequests-expected, success, rejected)
	}

	after, err := findProduct(ctx, client, productID)
	if err != nil {
		log.Fatalf("failed to re-read product %d: %v", productID, err)
	}
	fmt.Printf("Final Stock:      %d\n", after.AvailableStock)

	if after.AvailableStock == initialStock-success {
		fmt.Println("PASS: stock matches settled sales")
	} else {
		fmt.Printf("FAIL: expected stock %d, got %d\n", initialStock-success, after.AvailableStock)
	}
}

func findProduct(ctx context.Context, client *remote.HTTPClient, id int64) (domain.Product, error) {
	products, err := client.SearchProducts(ctx, strconv.FormatInt(id, 10), 10)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, errors.New("not in catalog")
}
