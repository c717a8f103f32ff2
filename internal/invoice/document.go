package invoice

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// NoItemsText fills the table body of an invoice without line items.
const NoItemsText = "No items found."

// BillTo identifies the customer printed in the invoice header.
type BillTo struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Row is one table row. A placeholder row carries a single cell that spans
// the whole table.
type Row struct {
	Cells       []string `json:"cells"`
	Placeholder bool     `json:"placeholder,omitempty"`
}

// Document is the formatted invoice shared by every exporter. Exporters only
// lay it out, so on-screen and exported totals cannot diverge.
type Document struct {
	Title    string   `json:"title"`
	Number   string   `json:"number"`
	FileName string   `json:"file_name"`
	Header   []Field  `json:"header"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
	Footer   []Field  `json:"footer"`
}

func NewDocument(v View, billTo BillTo) Document {
	number := strconv.FormatInt(v.OrderID, 10)
	taxLabel := "GST (" + FormatRate(v.TaxRate) + ")"

	doc := Document{
		Title:    "Invoice",
		Number:   number,
		FileName: "Invoice_" + number,
		Columns:  []string{"Product", "Unit Price", "Quantity", "Subtotal", taxLabel},
	}

	doc.Header = append(doc.Header, Field{Label: "Order Number", Value: number})
	if billTo.Name != "" {
		doc.Header = append(doc.Header, Field{Label: "User", Value: billTo.Name})
	}
	if billTo.Email != "" {
		doc.Header = append(doc.Header, Field{Label: "Email", Value: billTo.Email})
	}
	if billTo.Address != "" {
		doc.Header = append(doc.Header, Field{Label: "Address", Value: billTo.Address})
	}
	if !v.OrderDate.IsZero() {
		doc.Header = append(doc.Header, Field{Label: "Order Date", Value: v.OrderDate.Format("2006-01-02")})
	}
	if v.Status != "" {
		doc.Header = append(doc.Header, Field{Label: "Status", Value: v.Status.String()})
	}
	doc.Header = append(doc.Header, Field{Label: "Total Amount", Value: FormatMoney(v.Total)})

	if len(v.Lines) == 0 {
		doc.Rows = []Row{{Cells: []string{NoItemsText}, Placeholder: true}}
	}
	for _, line := range v.Lines {
		doc.Rows = append(doc.Rows, Row{Cells: []string{
			line.ProductName,
			FormatMoney(line.UnitPrice),
			strconv.Itoa(line.Quantity),
			FormatMoney(line.Subtotal),
			FormatMoney(line.Tax),
		}})
	}

	doc.Footer = []Field{
		{Label: "Subtotal (excl. GST)", Value: FormatMoney(v.Subtotal)},
		{Label: taxLabel, Value: FormatMoney(v.Tax)},
		{Label: "Invoice Total (incl. GST)", Value: FormatMoney(v.Total)},
	}

	return doc
}

// FormatMoney rounds half away from zero to cents.
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// FormatRate renders 0.15 as "15%".
func FormatRate(rate decimal.Decimal) string {
	return rate.Shift(2).String() + "%"
}
