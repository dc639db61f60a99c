package printer

import (
	"bytes"
	"html/template"
	"strings"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body { font-family: 'Consolas', 'Courier New', monospace; font-size: 12px; margin: 0; padding: 10px; }
.receipt-container { width: 80mm; margin: 0 auto; border: none; padding: 0; }
.receipt-header, .receipt-body, .receipt-footer { text-align: center; }
.receipt-body p, .receipt-footer p { margin: 2px 0; }
.product-name-highlight { font-weight: bold; }
hr { border-top: 1px dashed #888; margin: 5px 0; }
@media print {
  body { margin: 0; padding: 0; }
  .receipt-container { border: none; }
}
</style></head><body>
{{.Body}}
</body></html>
`))

// Page returns doc ready to be rendered on its own. A full document is
// returned verbatim; a fragment is placed, unaltered, inside a minimal page
// carrying the 80mm receipt stylesheet.
func Page(title, doc string) (string, error) {
	if strings.Contains(strings.ToLower(doc), "<html") {
		return doc, nil
	}

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(doc)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
