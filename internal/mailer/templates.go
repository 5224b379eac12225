package mailer

import (
	"html/template"
	"io"
)

type templateRenderer interface {
	Execute(w io.Writer, data any) error
}

const layoutOpen = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e74c3c; border-radius: 5px;">`

var funcs = template.FuncMap{
	"date": func(v any) string {
		switch t := v.(type) {
		case interface{ Format(string) string }:
			return t.Format("02 Jan 2006 at 15:04")
		}
		return "N/A"
	},
}

var verificationTmpl = template.Must(template.New("verification").Funcs(funcs).Parse(layoutOpen + `
  <h2 style="color: #e74c3c;">SafeFlame Gas Agency - Email Verification</h2>
  <p>Hello {{.Name}},</p>
  <p>Please verify your email address by clicking the button below:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.VerifyURL}}" style="background-color: #e74c3c; color: white; padding: 12px 20px; text-decoration: none; border-radius: 4px; font-weight: bold;">Verify Email Address</a>
  </div>
  <p>Or copy and paste this link in your browser:</p>
  <p style="word-break: break-all;"><a href="{{.VerifyURL}}">{{.VerifyURL}}</a></p>
  <p>This link will expire in 1 hour.</p>
  <p>If you did not create an account, please ignore this email.</p>
  <p>Regards,<br>Gas Agency Team</p>
</div>`))

var bookingConfirmationTmpl = template.Must(template.New("booking-confirmation").Funcs(funcs).Parse(layoutOpen + `
  <h2 style="color: #e74c3c;">Gas Agency System - Booking Confirmation</h2>
  <p>Hello {{.User.Name}},</p>
  <p>Your gas cylinder booking has been successfully created. Here are the details:</p>
  <div style="background-color: #f8f8f8; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Booking ID:</strong> {{.Booking.ID}}</p>
    <p><strong>Date:</strong> {{date .Booking.CreatedAt}}</p>
    <p><strong>Quantity:</strong> {{.Booking.Quantity}} cylinder(s)</p>
    <p><strong>Amount:</strong> {{.Booking.Amount.StringFixed 2}}</p>
    <p><strong>Delivery Address:</strong> {{.Booking.Address}}</p>
    <p><strong>Payment Method:</strong> {{.Booking.PaymentMethod}}</p>
    <p><strong>Status:</strong> Pending</p>
  </div>
  <p>Your booking is now pending approval. We will notify you once it's approved or if there are any updates.</p>
  <div style="background-color: #f8f8f8; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Account Balance:</strong></p>
    <p>Cylinders Allocated: {{.User.CylindersAllocated}}</p>
    <p>Cylinders Remaining: {{.User.CylindersRemaining}}</p>
  </div>
  <p>Thank you for choosing our service!</p>
  <p>Regards,<br>Gas Agency Team</p>
</div>`))

var statusUpdateTmpl = template.Must(template.New("status-update").Funcs(funcs).Parse(layoutOpen + `
  <h2 style="color: #e74c3c;">Gas Agency System - Booking Status Update</h2>
  <p>Hello {{.User.Name}},</p>
  <p>There has been an update to your gas cylinder booking. Here are the details:</p>
  <div style="background-color: #f8f8f8; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Booking ID:</strong> {{.Booking.ID}}</p>
    <p><strong>Quantity:</strong> {{.Booking.Quantity}} cylinder(s)</p>
    <p><strong>Updated:</strong> {{if .Booking.UpdatedAt}}{{date .Booking.UpdatedAt}}{{else}}N/A{{end}}</p>
    {{- if eq (print .Booking.Status) "approved"}}
    <p style="color: #2ecc71;"><strong>Status:</strong> APPROVED</p>
    <p>Your booking has been approved. Your gas cylinder will be delivered soon.</p>
    {{- else if eq (print .Booking.Status) "rejected"}}
    <p style="color: #e74c3c;"><strong>Status:</strong> REJECTED</p>
    <p>Your booking has been rejected. Reason: {{if .Booking.Remarks}}{{.Booking.Remarks}}{{else}}Not specified{{end}}</p>
    {{- else}}
    <p style="color: #f39c12;"><strong>Status:</strong> PENDING</p>
    <p>Your booking is being processed.</p>
    {{- end}}
  </div>
  <div style="background-color: #f8f8f8; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p>Cylinders Remaining: {{.User.CylindersRemaining}} of {{.User.CylindersAllocated}}</p>
  </div>
  <p>Regards,<br>Gas Agency Team</p>
</div>`))

var accountBalanceTmpl = template.Must(template.New("account-balance").Funcs(funcs).Parse(layoutOpen + `
  <h2 style="color: #e74c3c;">Gas Agency System - Account Balance</h2>
  <p>Hello {{.User.Name}},</p>
  <p>Here is your current cylinder account balance:</p>
  <div style="background-color: #f8f8f8; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Cylinders Allocated:</strong> {{.User.CylindersAllocated}}</p>
    <p><strong>Cylinders Used:</strong> {{.Used}}</p>
    <p><strong>Cylinders Remaining:</strong> {{.User.CylindersRemaining}}</p>
  </div>
  <p>Regards,<br>Gas Agency Team</p>
</div>`))
