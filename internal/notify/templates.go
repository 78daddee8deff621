package notify

import (
    "bytes"
    "fmt"
    "html/template"
    "strings"
    "time"
)

// Purposes used across the service.
const (
    PurposeRegistrationOTP = "registration_otp"
    PurposeLoginOTP        = "login_otp"
    PurposeVendorPending   = "vendor_awaiting_approval"
    PurposeVendorVerified  = "vendor_verified"
    PurposeWarrantyStatus  = "warranty_status"
    PurposeWarrantyReview  = "warranty_review_request"
    PurposeWarrantyCreated = "warranty_submitted"
    PurposeEscalation      = "delivery_escalation"
)

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>{{.Title}}</h2>
{{range .Lines}}<p>{{.}}</p>
{{end}}{{if .Code}}<p style="font-size:28px;letter-spacing:6px"><strong>{{.Code}}</strong></p>
{{end}}{{if .Rows}}<table cellpadding="4">{{range .Rows}}<tr><td><strong>{{index . 0}}</strong></td><td>{{index . 1}}</td></tr>{{end}}</table>
{{end}}</body></html>`))

type page struct {
    Title string
    Lines []string
    Code  string
    Rows  [][2]string
}

func render(p page) string {
    var buf bytes.Buffer
    if err := layout.Execute(&buf, p); err != nil {
        return strings.Join(append([]string{p.Title}, p.Lines...), "\n")
    }
    return buf.String()
}

// OTPEmail carries a one-time passcode.
func OTPEmail(purpose, code string, ttl time.Duration) Message {
    return Message{
        Purpose: purpose,
        Subject: "Your verification code",
        HTML: render(page{
            Title: "Verification code",
            Lines: []string{fmt.Sprintf("Use the code below to continue. It expires in %d minutes and can be used once.", int(ttl.Minutes()))},
            Code:  code,
        }),
    }
}

// EscalationEmail reports an undeliverable email to the operator.
func EscalationEmail(recipient, purpose string, at time.Time, cause error) Message {
    last := "unknown"
    if cause != nil {
        last = cause.Error()
    }
    return Message{
        Purpose: PurposeEscalation,
        Subject: "Notification delivery failed: " + purpose,
        HTML: render(page{
            Title: "Email delivery failed after all retries",
            Rows: [][2]string{
                {"Recipient", recipient},
                {"Purpose", purpose},
                {"Time", at.UTC().Format(time.RFC3339)},
                {"Last error", last},
            },
        }),
    }
}

// WarrantyStatusEmail tells a customer or vendor about a status change.
func WarrantyStatusEmail(uid, status, reason string) Message {
    lines := []string{fmt.Sprintf("Warranty %s is now %s.", uid, humanStatus(status))}
    if reason != "" {
        lines = append(lines, "Reason: "+reason)
    }
    return Message{
        Purpose: PurposeWarrantyStatus,
        Subject: fmt.Sprintf("Warranty %s: %s", uid, humanStatus(status)),
        HTML:    render(page{Title: "Warranty update", Lines: lines}),
    }
}

// WarrantySubmittedEmail confirms a submission to the customer.
func WarrantySubmittedEmail(uid, status string) Message {
    return Message{
        Purpose: PurposeWarrantyCreated,
        Subject: "Warranty registration received: " + uid,
        HTML: render(page{
            Title: "Warranty registration received",
            Lines: []string{fmt.Sprintf("We received warranty %s. Current status: %s.", uid, humanStatus(status))},
        }),
    }
}

// WarrantyReviewEmail asks a vendor to review a customer submission.
func WarrantyReviewEmail(uid, customerName string) Message {
    return Message{
        Purpose: PurposeWarrantyReview,
        Subject: "Warranty awaiting your review: " + uid,
        HTML: render(page{
            Title: "Warranty awaiting review",
            Lines: []string{fmt.Sprintf("%s registered warranty %s with your store. Please approve or reject it.", customerName, uid)},
        }),
    }
}

// VendorPendingEmail tells admins that a vendor registration needs approval.
func VendorPendingEmail(storeName, email string) Message {
    return Message{
        Purpose: PurposeVendorPending,
        Subject: "Vendor awaiting approval: " + storeName,
        HTML: render(page{
            Title: "New vendor registration",
            Rows:  [][2]string{{"Store", storeName}, {"Email", email}},
        }),
    }
}

// VendorVerifiedEmail tells a vendor that the account was approved.
func VendorVerifiedEmail(storeName string) Message {
    return Message{
        Purpose: PurposeVendorVerified,
        Subject: "Your vendor account is approved",
        HTML: render(page{
            Title: "Account approved",
            Lines: []string{fmt.Sprintf("%s can now sign in and review warranty registrations.", storeName)},
        }),
    }
}

// InApp builds an in-app message.
func InApp(purpose, title, text, kind, link string) Message {
    return Message{Purpose: purpose, Title: title, Text: text, Type: kind, Link: link}
}

func humanStatus(s string) string {
    switch s {
    case "pending_vendor":
        return "awaiting store approval"
    case "pending":
        return "awaiting admin review"
    }
    return s
}
