package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"mime"
	"strings"
	texttemplate "text/template"
	"time"

	"festora-be/internal/order"
)

const boundary = "festora-alt-7b3f"

type emailData struct {
	Code          string
	CustomerName  string
	Items         []itemData
	TotalAmount   string
	Upfront       string
	Remaining     string
	IsCOD         bool
	AddressLines  []string
	ScheduledFor  string
	PaymentMethod string
}

type itemData struct {
	Name     string
	Quantity int
	Price    string
	LineSum  string
}

var textTmpl = texttemplate.Must(texttemplate.New("confirmation").Parse(`Hi {{.CustomerName}},

Your order {{.Code}} is confirmed.

Items:
{{range .Items}}  - {{.Name}} x{{.Quantity}} @ Rs.{{.Price}} = Rs.{{.LineSum}}
{{end}}
Total: Rs.{{.TotalAmount}}
{{if .IsCOD}}Paid now: Rs.{{.Upfront}}
Due on delivery: Rs.{{.Remaining}}
{{end}}{{if .ScheduledFor}}Scheduled delivery: {{.ScheduledFor}}
{{end}}
Delivery address:
{{range .AddressLines}}  {{.}}
{{end}}
Thank you for celebrating with Festora!
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("confirmation").Parse(`<html>
<body style="font-family:Arial,sans-serif;color:#333">
  <h2>Order {{.Code}} confirmed 🎉</h2>
  <p>Hi {{.CustomerName}}, thanks for your order!</p>
  <table border="0" cellpadding="6" cellspacing="0" style="border-collapse:collapse">
    <tr style="background:#f5e1ff"><th align="left">Item</th><th>Qty</th><th align="right">Price</th></tr>
    {{range .Items}}<tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">&#8377;{{.LineSum}}</td></tr>
    {{end}}
    <tr><td colspan="2"><b>Total</b></td><td align="right"><b>&#8377;{{.TotalAmount}}</b></td></tr>
    {{if .IsCOD}}<tr><td colspan="2">Paid now</td><td align="right">&#8377;{{.Upfront}}</td></tr>
    <tr><td colspan="2">Due on delivery</td><td align="right">&#8377;{{.Remaining}}</td></tr>{{end}}
  </table>
  {{if .ScheduledFor}}<p><b>Scheduled delivery:</b> {{.ScheduledFor}}</p>{{end}}
  <p><b>Delivery address</b><br>{{range .AddressLines}}{{.}}<br>{{end}}</p>
  <p>Thank you for celebrating with Festora!</p>
</body>
</html>
`))

func buildMessage(from string, ord *order.Order) ([]byte, error) {
	data := newEmailData(ord)

	var textBody, htmlBody bytes.Buffer
	if err := textTmpl.Execute(&textBody, data); err != nil {
		return nil, err
	}
	if err := htmlTmpl.Execute(&htmlBody, data); err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("Your Festora order %s is confirmed", ord.Code)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", ord.CustomerEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.Write(textBody.Bytes())
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	msg.Write(htmlBody.Bytes())
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes(), nil
}

func newEmailData(ord *order.Order) emailData {
	data := emailData{
		Code:          ord.Code,
		CustomerName:  ord.CustomerName,
		TotalAmount:   rupees(ord.TotalAmount),
		IsCOD:         ord.PaymentMethod == order.MethodCOD,
		PaymentMethod: string(ord.PaymentMethod),
	}

	if ord.UpfrontAmount != nil {
		data.Upfront = rupees(*ord.UpfrontAmount)
	}
	if ord.RemainingAmount != nil {
		data.Remaining = rupees(*ord.RemainingAmount)
	}
	if ord.ScheduledFor != nil {
		data.ScheduledFor = ord.ScheduledFor.Format(time.RFC1123)
	}

	for _, it := range ord.Items {
		data.Items = append(data.Items, itemData{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    rupees(it.Price),
			LineSum:  rupees(it.Price * float64(it.Quantity)),
		})
	}

	addr := ord.Address
	lines := []string{addr.Line1}
	if addr.Line2 != nil && *addr.Line2 != "" {
		lines = append(lines, *addr.Line2)
	}
	lines = append(lines, strings.TrimSpace(fmt.Sprintf("%s, %s %s", addr.City, addr.State, addr.Pincode)))
	data.AddressLines = lines

	return data
}

func rupees(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
