package sim

import (
	"bytes"
	"html/template"
	"time"

	"github.com/rl1809/pos-register/internal/core/domain"
)

const receiptTemplate = `<div class="receipt-container">
  <div class="receipt-header">
    <p class="company">{{.Company.Name}}</p>
    {{- if .Company.Address}}
    <p>{{.Company.Address}}</p>
    {{- end}}
    <hr>
    <p>NON-FISCAL RECEIPT</p>
    <p>Sale #{{.SaleID}} &middot; unit {{.Unit}}/{{.Units}}</p>
  </div>
  <div class="receipt-body">
    <p class="product-name-highlight">{{.Line.Name}}</p>
    <p>1 x {{money .Line.UnitPrice}} = {{money .Line.UnitPrice}}</p>
    <hr>
    <p>Payment: {{.PaymentLabel}}</p>
  </div>
  <div class="receipt-footer">
    <p>{{.IssuedAt.Format "02/01/2006 15:04:05"}}{{if .TerminalID}} &middot; {{.TerminalID}}{{end}}</p>
    <p>Thank you!</p>
  </div>
</div>
`

type Company struct {
	Name    string
	Address string
}

type ReceiptData struct {
	SaleID        int64
	Line          domain.SaleLine
	Unit          int
	Units         int
	PaymentMethod domain.PaymentMethod
	TerminalID    string
	IssuedAt      time.Time
}

type receiptView struct {
	ReceiptData
	Company      Company
	PaymentLabel string
}

// ReceiptRenderer renders the single-unit receipt document.
type ReceiptRenderer struct {
	tmpl    *template.Template
	company Company
	labels  map[domain.PaymentMethod]string
}

func NewReceiptRenderer(company Company, labels map[domain.PaymentMethod]string) (*ReceiptRenderer, error) {
	tmpl, err := template.New("receipt").Funcs(template.FuncMap{
		"money": domain.FormatMoney,
	}).Parse(receiptTemplate)
	if err != nil {
		return nil, err
	}
	return &ReceiptRenderer{tmpl: tmpl, company: company, labels: labels}, nil
}

func (r *ReceiptRenderer) Render(data ReceiptData) (string, error) {
	label := r.labels[data.PaymentMethod]
	if label == "" {
		label = string(data.PaymentMethod)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, receiptView{ReceiptData: data, Company: r.company, PaymentLabel: label}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
