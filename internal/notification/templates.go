package notification

const templates = `
{{define "when"}}{{if .When}} on {{.When}}{{end}}{{end}}

{{define "customer_refund"}}<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
<h2>Your booking is cancelled</h2>
<p>Hi {{.CustomerName}},</p>
<p>Your booking for <strong>{{.OfferTitle}}</strong>{{template "when" .}} has been cancelled.</p>
<p>You cancelled within the refund window, so {{if .Amount}}<strong>{{.Amount}}</strong>{{else}}your payment{{end}} is on its way back to your original payment method.{{if .RefundID}} Refund reference: <code>{{.RefundID}}</code>.{{end}}</p>
<p>Refunds usually appear within 5 to 10 business days.</p>
<p>{{.Brand}}</p>
</div>{{end}}

{{define "customer_late_flexible"}}<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
<h2>Your booking is cancelled</h2>
<p>Hi {{.CustomerName}},</p>
<p>Your booking for <strong>{{.OfferTitle}}</strong>{{template "when" .}} has been cancelled.</p>
<p>This booking has a flexible policy, which refunds cancellations made at least 24 hours in advance. Your cancellation came later than that, so no refund is due this time.</p>
<p>{{.Brand}}</p>
</div>{{end}}

{{define "customer_late_windowed"}}<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
<h2>Your booking is cancelled</h2>
<p>Hi {{.CustomerName}},</p>
<p>Your booking for <strong>{{.OfferTitle}}</strong>{{template "when" .}} has been cancelled.</p>
<p>This booking has a {{.Policy}} policy, which refunds cancellations made at least {{.NoticeWindow}} in advance. Your cancellation came inside that window, so no refund is due.</p>
<p>{{.Brand}}</p>
</div>{{end}}

{{define "customer_non_refundable"}}<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
<h2>Your booking is cancelled</h2>
<p>Hi {{.CustomerName}},</p>
<p>Your booking for <strong>{{.OfferTitle}}</strong>{{template "when" .}} has been cancelled.</p>
<p>{{if .Purchase}}This purchase is non-refundable{{else}}This booking has a non-refundable policy{{end}}, so no refund will be issued.</p>
{{if .Support}}<p>If you believe this is a mistake, reply to <a href="mailto:{{.Support}}">{{.Support}}</a> with booking #{{.BookingID}} and we will take a look.</p>{{end}}
<p>{{.Brand}}</p>
</div>{{end}}

{{define "partner"}}<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
<h2>Booking #{{.BookingID}} cancelled</h2>
<p>Hello {{.PartnerName}},</p>
<p>The booking for <strong>{{.OfferTitle}}</strong>{{template "when" .}} was cancelled by the customer. The spot is free again.</p>
{{if .Reason}}<p>Reason given: {{.Reason}}</p>{{end}}
<p>{{if .RefundID}}A refund was issued ({{.RefundID}}).{{else}}No refund was issued.{{end}}</p>
<p>{{.Brand}}</p>
</div>{{end}}
`
