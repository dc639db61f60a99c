// Package pb holds the wire messages and the service descriptor of the
// register service. Messages are plain structs carried as JSON over gRPC.
package pb

type Product struct {
	Id      int64  `json:"id"`
	Name    string `json:"name"`
	Price   string `json:"price"`
	Stock   int32  `json:"stock"`
	Barcode string `json:"barcode,omitempty"`
}

func (x *Product) GetId() int64 {
	if x != nil {
		return x.Id
	}
	return 0
}

func (x *Product) GetName() string {
	if x != nil {
		return x.Name
	}
	return ""
}

func (x *Product) GetPrice() string {
	if x != nil {
		return x.Price
	}
	return ""
}

func (x *Product) GetStock() int32 {
	if x != nil {
		return x.Stock
	}
	return 0
}

func (x *Product) GetBarcode() string {
	if x != nil {
		return x.Barcode
	}
	return ""
}

type SearchProductsRequest struct {
	Query string `json:"query"`
	Limit int32  `json:"limit"`
}

func (x *SearchProductsRequest) GetQuery() string {
	if x != nil {
		return x.Query
	}
	return ""
}

func (x *SearchProductsRequest) GetLimit() int32 {
	if x != nil {
		return x.Limit
	}
	return 0
}

type SearchProductsResponse struct {
	Products []*Product `json:"products"`
}

func (x *SearchProductsResponse) GetProducts() []*Product {
	if x != nil {
		return x.Products
	}
	return nil
}

type SaleLine struct {
	ProductId int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int32  `json:"quantity"`
}

func (x *SaleLine) GetProductId() int64 {
	if x != nil {
		return x.ProductId
	}
	return 0
}

func (x *SaleLine) GetName() string {
	if x != nil {
		return x.Name
	}
	return ""
}

func (x *SaleLine) GetPrice() string {
	if x != nil {
		return x.Price
	}
	return ""
}

func (x *SaleLine) GetQuantity() int32 {
	if x != nil {
		return x.Quantity
	}
	return 0
}

type CheckoutRequest struct {
	RequestId     string      `json:"request_id"`
	TerminalId    string      `json:"terminal_id"`
	Lines         []*SaleLine `json:"lines"`
	TotalAmount   string      `json:"total_amount"`
	PaymentMethod string      `json:"payment_method"`
	PaidAmount    string      `json:"paid_amount"`
	ChangeAmount  string      `json:"change_amount"`
}

func (x *CheckoutRequest) GetRequestId() string {
	if x != nil {
		return x.RequestId
	}
	return ""
}

func (x *CheckoutRequest) GetTerminalId() string {
	if x != nil {
		return x.TerminalId
	}
	return ""
}

func (x *CheckoutRequest) GetLines() []*SaleLine {
	if x != nil {
		return x.Lines
	}
	return nil
}

func (x *CheckoutRequest) GetTotalAmount() string {
	if x != nil {
		return x.TotalAmount
	}
	return ""
}

func (x *CheckoutRequest) GetPaymentMethod() string {
	if x != nil {
		return x.PaymentMethod
	}
	return ""
}

func (x *CheckoutRequest) GetPaidAmount() string {
	if x != nil {
		return x.PaidAmount
	}
	return ""
}

func (x *CheckoutRequest) GetChangeAmount() string {
	if x != nil {
		return x.ChangeAmount
	}
	return ""
}

type CheckoutResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	ReceiptHtmls []string `json:"receipt_htmls"`
}

func (x *CheckoutResponse) GetSuccess() bool {
	if x != nil {
		return x.Success
	}
	return false
}

func (x *CheckoutResponse) GetMessage() string {
	if x != nil {
		return x.Message
	}
	return ""
}

func (x *CheckoutResponse) GetReceiptHtmls() []string {
	if x != nil {
		return x.ReceiptHtmls
	}
	return nil
}
