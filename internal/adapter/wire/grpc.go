package wire

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/pos-register/internal/adapter/handler/pb"
	"github.com/rl1809/pos-register/internal/core/domain"
)

func ProductToPB(p domain.Product) *pb.Product {
	return &pb.Product{
		Id:      p.ID,
		Name:    p.Name,
		Price:   p.UnitPrice.String(),
		Stock:   int32(p.AvailableStock),
		Barcode: p.Barcode,
	}
}

func ProductFromPB(p *pb.Product) (domain.Product, error) {
	price, err := decimal.NewFromString(p.GetPrice())
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %d price %q: %w", p.GetId(), p.GetPrice(), err)
	}

	stock := int(p.GetStock())
	if stock < 0 {
		stock = 0
	}
	return domain.Product{
		ID:             p.GetId(),
		Name:           p.GetName(),
		UnitPrice:      price,
		AvailableStock: stock,
		Barcode:        p.GetBarcode(),
	}, nil
}

func CheckoutToPB(req domain.SaleRequest, labels Labels) *pb.CheckoutRequest {
	lines := make([]*pb.SaleLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, &pb.SaleLine{
			ProductId: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice.String(),
			Quantity:  int32(l.Quantity),
		})
	}

	return &pb.CheckoutRequest{
		RequestId:     req.RequestID,
		TerminalId:    req.TerminalID,
		Lines:         lines,
		TotalAmount:   req.TotalAmount.String(),
		PaymentMethod: labels.Label(req.PaymentMethod),
		PaidAmount:    req.TenderedAmount.String(),
		ChangeAmount:  req.ChangeAmount.String(),
	}
}

func CheckoutFromPB(in *pb.CheckoutRequest, labels Labels) (domain.SaleRequest, error) {
	if len(in.GetLines()) == 0 || in.GetPaymentMethod() == "" || in.GetTotalAmount() == "" {
		return domain.SaleRequest{}, domain.NewValidationError("incomplete sale data")
	}

	method, err := labels.Method(in.GetPaymentMethod())
	if err != nil {
		return domain.SaleRequest{}, err
	}

	total, err := parseAmount("total_amount", in.GetTotalAmount())
	if err != nil {
		return domain.SaleRequest{}, err
	}
	paid, err := parseAmount("paid_amount", in.GetPaidAmount())
	if err != nil {
		return domain.SaleRequest{}, err
	}
	change, err := parseAmount("change_amount", in.GetChangeAmount())
	if err != nil {
		return domain.SaleRequest{}, err
	}

	lines := make([]domain.SaleLine, 0, len(in.GetLines()))
	for _, l := range in.GetLines() {
		if l.GetQuantity() < 1 {
			return domain.SaleRequest{}, domain.NewValidationError(fmt.Sprintf("invalid quantity for product %d", l.GetProductId()))
		}
		price, err := parseAmount("price", l.GetPrice())
		if err != nil {
			return domain.SaleRequest{}, err
		}
		lines = append(lines, domain.SaleLine{
			ProductID: l.GetProductId(),
			Name:      l.GetName(),
			UnitPrice: price,
			Quantity:  int(l.GetQuantity()),
		})
	}

	return domain.SaleRequest{
		RequestID:      in.GetRequestId(),
		TerminalID:     in.GetTerminalId(),
		Lines:          lines,
		TotalAmount:    total,
		PaymentMethod:  method,
		TenderedAmount: paid,
		ChangeAmount:   change,
	}, nil
}

func ResultToPB(r domain.SaleResult) *pb.CheckoutResponse {
	return &pb.CheckoutResponse{
		Success:      r.Success,
		Message:      r.Message,
		ReceiptHtmls: r.ReceiptDocuments,
	}
}

func ResultFromPB(r *pb.CheckoutResponse) domain.SaleResult {
	return domain.SaleResult{
		Success:          r.GetSuccess(),
		Message:          r.GetMessage(),
		ReceiptDocuments: r.GetReceiptHtmls(),
	}
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.NewValidationError(fmt.Sprintf("invalid %s %q", field, s))
	}
	return d, nil
}
