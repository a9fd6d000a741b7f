// Package summary формирует печатную сводку заказа и ссылку для отправки в WhatsApp.
package summary

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/mmeshcher/orderdesk/internal/model"
	"github.com/mmeshcher/orderdesk/internal/pricing"
)

const shareBaseURL = "https://api.whatsapp.com/send"

var page = template.Must(template.New("summary").Funcs(template.FuncMap{
	"money": money,
	"orNA":  orNA,
}).Parse(`<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>Pedido {{.Order.ID}}</title></head>
<body style="width:800px;font-family:sans-serif;font-size:12px">
<h2 style="text-align:center">Resumen de Pedido</h2>
<table style="width:100%">
<tr><td><strong>Cliente:</strong> {{orNA .Order.Client}}</td><td style="text-align:right"><strong>Fecha:</strong> {{.Order.Date.Format "02/01/2006"}}</td></tr>
<tr><td><strong>Vendedor:</strong> {{orNA .Order.Seller}}</td><td style="text-align:right"><strong>Hora:</strong> {{.Order.Date.Format "15:04:05"}}</td></tr>
<tr><td><strong>Distribuidor:</strong> {{orNA .Order.Distributor}}</td><td style="text-align:right"><strong>ID Pedido:</strong> {{.Order.ID}}</td></tr>
{{- if .Order.DistributorRepName}}
<tr><td><strong>Representante:</strong> {{.Order.DistributorRepName}}</td><td></td></tr>
{{- end}}
</table>
<table style="width:100%;border-top:1px solid #ccc;border-bottom:1px solid #ccc;margin:16px 0">
<tr><th style="text-align:left">Producto</th><th>Cant.</th><th>Bonif.</th><th style="text-align:right">P. Unit.</th><th style="text-align:right">Desc.</th><th style="text-align:right">Total</th></tr>
{{- range .Order.Lines}}
<tr><td>{{.ProductName}}</td><td style="text-align:center">{{.Quantity}}</td><td style="text-align:center">{{.Bonus}}</td><td style="text-align:right">{{money .UnitPrice}}</td><td style="text-align:right">{{.DiscountPercent}}%</td><td style="text-align:right">{{money .Subtotal}}</td></tr>
{{- end}}
</table>
<div style="text-align:right">
{{- if gt .Order.OverallDiscountPercent 0.0}}
<div>Subtotal: {{money .Totals.Subtotal}}</div>
<div>Descuento ({{.Order.OverallDiscountPercent}}%): -{{money .Totals.Discount}}</div>
{{- end}}
<div style="font-size:20px;font-weight:bold">Total: {{money .Order.GrandTotal}}</div>
</div>
<p style="text-align:center;color:#999">Gracias por su compra.</p>
</body>
</html>
`))

type view struct {
	Order  model.Order
	Totals pricing.Summary
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", pricing.Round2(v))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Render записывает в w печатную HTML-сводку заказа.
func Render(w io.Writer, o model.Order) error {
	v := view{
		Order:  o,
		Totals: pricing.Summarize(o.Lines, o.OverallDiscountPercent),
	}
	if err := page.Execute(w, v); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	return nil
}

// RenderBytes возвращает печатную HTML-сводку заказа.
func RenderBytes(o model.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName возвращает имя файла сводки заказа.
func FileName(o model.Order) string {
	return fmt.Sprintf("Pedido-%d.html", o.ID)
}

// Message возвращает текст сообщения о заказе.
func Message(o model.Order) string {
	return fmt.Sprintf("*Resumen de Pedido*\n\nEl resumen del pedido ha sido descargado. Por favor, adjúntalo a este chat.\n\n*Pedido ID:* %d\n*Cliente:* %s\n*Total:* %s",
		o.ID, o.Client, money(o.GrandTotal))
}

// ShareURL возвращает ссылку WhatsApp с заполненным сообщением о заказе.
func ShareURL(o model.Order) string {
	q := url.Values{}
	q.Set("text", Message(o))
	return shareBaseURL + "?" + q.Encode()
}
