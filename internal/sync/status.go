package sync

import (
	"strings"
	"time"
)

// Local payment statuses derived from remote invoice state.
const (
	PaymentStatusDraft            = "draft"
	PaymentStatusAwaitingApproval = "awaiting_approval"
	PaymentStatusAwaitingPayment  = "awaiting_payment"
	PaymentStatusOverdue          = "overdue"
	PaymentStatusPaid             = "paid"
	PaymentStatusVoid             = "void"
)

// MapPaymentStatus maps a remote invoice status, outstanding amount
// and due date onto the local payment-status enum. Total over all
// inputs: unknown or empty statuses map to draft.
func MapPaymentStatus(status string, amountDue *float64, dueDate *time.Time, now time.Time) string {
	switch strings.ToUpper(status) {
	case "DRAFT":
		return PaymentStatusDraft
	case "SUBMITTED":
		return PaymentStatusAwaitingApproval
	case "AUTHORISED":
		if dueDate != nil && dueDate.Before(now) && amountDue != nil && *amountDue > 0 {
			return PaymentStatusOverdue
		}
		return PaymentStatusAwaitingPayment
	case "PAID":
		return PaymentStatusPaid
	case "VOIDED", "DELETED":
		return PaymentStatusVoid
	default:
		return PaymentStatusDraft
	}
}
