package sync

import (
	"context"
	"fmt"

	"github.com/tidewater/xerosync/internal/store"
	"github.com/tidewater/xerosync/pkg/xeroclient"
)

// PushInvoices groups unbilled, approved timesheets by cost center,
// raises one Xero invoice per group, records a local invoice row, and
// marks the source timesheets as invoiced.
func (s *Service) PushInvoices(ctx context.Context) (PushResult, error) {
	h, err := s.log.Start(ctx, TypePushInvoices)
	if err != nil {
		return PushResult{}, err
	}

	res, err := s.pushInvoices(ctx)
	if err != nil {
		s.failLog(ctx, h, err)
		return res, err
	}
	if err := s.log.Complete(ctx, h, res.Processed); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Service) pushInvoices(ctx context.Context) (PushResult, error) {
	var res PushResult

	sheets, err := s.store.BillableTimesheets(ctx, timesheetBatchLimit)
	if err != nil {
		return res, err
	}

	// Group by cost center, preserving first-seen order.
	groups := make(map[string][]store.Timesheet)
	var order []string
	for _, ts := range sheets {
		if ts.CostCenterID == nil {
			continue
		}
		cc := *ts.CostCenterID
		if _, seen := groups[cc]; !seen {
			order = append(order, cc)
		}
		groups[cc] = append(groups[cc], ts)
	}

	session, err := s.auth.EnsureAuth(ctx)
	if err != nil {
		return res, err
	}

	for _, costCenterID := range order {
		records := groups[costCenterID]

		var totalHours float64
		for _, ts := range records {
			totalHours += ts.Hours
		}
		totalAmount := totalHours * fallbackHourlyRate
		if totalAmount < 0 {
			totalAmount = 0
		}

		quantity := totalHours
		if quantity <= 0 {
			quantity = 1
		}

		now := s.now()
		dueDate := now.AddDate(0, 0, invoiceDueDays)
		invoiceNumber := fmt.Sprintf("INV-%06d", now.Unix()%1000000)

		invoice := xeroclient.Invoice{
			Type:            xeroclient.InvoiceTypeAccRec,
			Status:          xeroclient.InvoiceStatusAuthorised,
			Date:            now.Format("2006-01-02"),
			DueDate:         dueDate.Format("2006-01-02"),
			LineAmountTypes: xeroclient.LineAmountTypesExclusive,
			Contact: &xeroclient.Contact{
				Name: "Cost Center " + truncate(costCenterID, 12),
			},
			LineItems: []xeroclient.LineItem{{
				Description: "Timesheets for " + costCenterID,
				Quantity:    quantity,
				UnitAmount:  totalAmount / quantity,
				AccountCode: salesAccountCode,
			}},
		}

		var xeroInvoiceID string
		created, err := s.api.CreateInvoices(ctx, session, []xeroclient.Invoice{invoice})
		if err == nil && len(created) > 0 && created[0].InvoiceID != "" {
			xeroInvoiceID = created[0].InvoiceID
			if created[0].InvoiceNumber != "" {
				invoiceNumber = created[0].InvoiceNumber
			}
		} else {
			xeroInvoiceID = placeholderID("XERO-INV", costCenterID)
			res.Degraded++
			s.logger.Printf("invoice create failed for cost center %s, using placeholder %s: %v",
				costCenterID, xeroInvoiceID, err)
		}

		localInvoice := &store.Invoice{
			CostCenterID:  costCenterID,
			XeroInvoiceID: &xeroInvoiceID,
			InvoiceNumber: invoiceNumber,
			TotalAmount:   totalAmount,
			PaymentStatus: "Draft",
			DueDate:       &dueDate,
		}
		if err := s.store.InsertInvoice(ctx, localInvoice); err != nil {
			return res, err
		}

		ids := make([]string, len(records))
		for i, ts := range records {
			ids[i] = ts.ID
		}
		if err := s.store.MarkTimesheetsInvoiced(ctx, ids, xeroInvoiceID, now); err != nil {
			return res, err
		}

		res.Processed += len(records)
	}
	return res, nil
}
