package sync

import (
	"context"
	"strings"
	"time"

	"github.com/tidewater/xerosync/internal/store"
	"github.com/tidewater/xerosync/pkg/xeroclient"
)

// PullContacts fetches the tenant's contacts and reconciles each one
// against the local client table: external-id match updates in place,
// a case-insensitive name match links the existing row, otherwise a
// new client is created.
func (s *Service) PullContacts(ctx context.Context) (PullResult, error) {
	h, err := s.log.Start(ctx, TypePullClients)
	if err != nil {
		return PullResult{}, err
	}

	res, err := s.pullContacts(ctx)
	if err != nil {
		s.failLog(ctx, h, err)
		return res, err
	}
	if err := s.log.Complete(ctx, h, res.Created+res.Updated); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Service) pullContacts(ctx context.Context) (PullResult, error) {
	var res PullResult

	session, err := s.auth.EnsureAuth(ctx)
	if err != nil {
		return res, err
	}

	contacts, err := s.api.GetContacts(ctx, session)
	if err != nil {
		return res, err
	}
	res.Total = len(contacts)
	s.logger.Printf("pulled %d contacts from tenant %s", len(contacts), session.TenantID)

	for _, contact := range contacts {
		switch outcome := s.reconcileContact(ctx, contact); outcome {
		case reconcileCreated:
			res.Created++
		case reconcileUpdated:
			res.Updated++
		default:
			res.Skipped++
		}
	}
	return res, nil
}

type reconcileOutcome int

const (
	reconcileSkipped reconcileOutcome = iota
	reconcileCreated
	reconcileUpdated
)

// reconcileContact applies one remote contact to the local table.
// Failures are isolated per record.
func (s *Service) reconcileContact(ctx context.Context, contact xeroclient.Contact) reconcileOutcome {
	phone := contactPhone(contact)
	address := contactAddress(contact, xeroclient.AddressTypeStreet)
	billing := contactAddress(contact, xeroclient.AddressTypePOBox)

	var contactName *string
	if contact.FirstName != "" && contact.LastName != "" {
		full := contact.FirstName + " " + contact.LastName
		contactName = &full
	}
	var email *string
	if contact.EmailAddress != "" {
		e := contact.EmailAddress
		email = &e
	}

	// External-id equality always wins over name heuristics.
	existing, err := s.store.ClientByContactID(ctx, contact.ContactID)
	if err != nil {
		s.logger.Printf("contact lookup failed for %s: %v", contact.ContactID, err)
		return reconcileSkipped
	}
	if existing != nil {
		err := s.store.UpdateClientFromRemote(ctx, existing.ID, contact.Name,
			contactName, email, phone, address, billing, s.now())
		if err != nil {
			s.logger.Printf("contact update failed for %s: %v", contact.ContactID, err)
			return reconcileSkipped
		}
		return reconcileUpdated
	}

	byName, err := s.store.ClientByNameFold(ctx, contact.Name)
	if err != nil {
		s.logger.Printf("contact name lookup failed for %s: %v", contact.ContactID, err)
		return reconcileSkipped
	}
	if byName != nil {
		if err := s.store.LinkClientContact(ctx, byName.ID, contact.ContactID, s.now()); err != nil {
			s.logger.Printf("contact link failed for %s: %v", contact.ContactID, err)
			return reconcileSkipped
		}
		return reconcileUpdated
	}

	if email == nil {
		placeholder := "noemail-" + contact.ContactID + "@xero.placeholder"
		email = &placeholder
	}
	contactID := contact.ContactID
	client := &store.Client{
		Name:           contact.Name,
		ContactName:    contactName,
		Email:          email,
		Phone:          phone,
		Address:        address,
		BillingAddress: billing,
		Status:         "active",
		XeroContactID:  &contactID,
	}
	if err := s.store.CreateClient(ctx, client); err != nil {
		s.logger.Printf("contact create failed for %s: %v", contact.ContactID, err)
		return reconcileSkipped
	}
	return reconcileCreated
}

// PullInvoices fetches the tenant's invoices and mirrors them locally.
// Invoices whose contact has no local client are skipped rather than
// creating orphans.
func (s *Service) PullInvoices(ctx context.Context) (PullResult, error) {
	h, err := s.log.Start(ctx, TypePullInvoices)
	if err != nil {
		return PullResult{}, err
	}

	res, err := s.pullInvoices(ctx)
	if err != nil {
		s.failLog(ctx, h, err)
		return res, err
	}
	if err := s.log.Complete(ctx, h, res.Created+res.Updated); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Service) pullInvoices(ctx context.Context) (PullResult, error) {
	var res PullResult

	session, err := s.auth.EnsureAuth(ctx)
	if err != nil {
		return res, err
	}

	invoices, err := s.api.GetInvoices(ctx, session)
	if err != nil {
		return res, err
	}
	res.Total = len(invoices)

	for _, invoice := range invoices {
		switch outcome := s.reconcileInvoice(ctx, invoice); outcome {
		case reconcileCreated:
			res.Created++
		case reconcileUpdated:
			res.Updated++
		default:
			res.Skipped++
		}
	}
	return res, nil
}

func (s *Service) reconcileInvoice(ctx context.Context, invoice xeroclient.Invoice) reconcileOutcome {
	if invoice.Contact == nil || invoice.Contact.ContactID == "" {
		s.logger.Printf("invoice %s has no contact, skipping", invoice.InvoiceNumber)
		return reconcileSkipped
	}

	client, err := s.store.ClientByContactID(ctx, invoice.Contact.ContactID)
	if err != nil {
		s.logger.Printf("client lookup failed for invoice %s: %v", invoice.InvoiceID, err)
		return reconcileSkipped
	}
	if client == nil {
		s.logger.Printf("no matching client for invoice %s (contact %s), skipping",
			invoice.InvoiceNumber, invoice.Contact.ContactID)
		return reconcileSkipped
	}

	existing, err := s.store.RemoteInvoiceByXeroID(ctx, invoice.InvoiceID)
	if err != nil {
		s.logger.Printf("invoice lookup failed for %s: %v", invoice.InvoiceID, err)
		return reconcileSkipped
	}

	status := strings.ToUpper(invoice.Status)
	if status == "" {
		status = "DRAFT"
	}

	issueDate := parseDatePtr(invoice.Date)
	if issueDate == nil {
		t := s.now()
		issueDate = &t
	}
	dueDate := parseDatePtr(invoice.DueDate)

	currency := invoice.CurrencyCode
	if currency == "" {
		currency = "NZD"
	}

	row := &store.RemoteInvoice{
		ClientID:      client.ID,
		XeroInvoiceID: invoice.InvoiceID,
		InvoiceNumber: invoice.InvoiceNumber,
		Status:        status,
		PaymentStatus: MapPaymentStatus(invoice.Status, invoice.AmountDue, dueDate, s.now()),
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Subtotal:      invoice.SubTotal,
		Tax:           invoice.TotalTax,
		Total:         invoice.Total,
		AmountPaid:    invoice.AmountPaid,
		AmountDue:     invoice.AmountDue,
		Currency:      currency,
	}

	if existing != nil {
		if err := s.store.UpdateRemoteInvoice(ctx, existing.ID, row); err != nil {
			s.logger.Printf("invoice update failed for %s: %v", invoice.InvoiceID, err)
			return reconcileSkipped
		}
		return reconcileUpdated
	}
	if err := s.store.InsertRemoteInvoice(ctx, row); err != nil {
		s.logger.Printf("invoice create failed for %s: %v", invoice.InvoiceID, err)
		return reconcileSkipped
	}
	return reconcileCreated
}

// contactPhone picks the contact's mobile number, falling back to the
// default number.
func contactPhone(contact xeroclient.Contact) *string {
	for _, typ := range []string{xeroclient.PhoneTypeMobile, xeroclient.PhoneTypeDefault} {
		for _, p := range contact.Phones {
			if p.PhoneType == typ && p.PhoneNumber != "" {
				n := p.PhoneNumber
				return &n
			}
		}
	}
	return nil
}

// contactAddress renders the address of the given type as one line.
func contactAddress(contact xeroclient.Contact, addressType string) *string {
	for _, a := range contact.Addresses {
		if a.AddressType != addressType {
			continue
		}
		var parts []string
		for _, p := range []string{a.AddressLine1, a.City, a.Region, a.PostalCode} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			return nil
		}
		line := strings.Join(parts, ", ")
		return &line
	}
	return nil
}

func parseDatePtr(v string) *time.Time {
	t, err := xeroclient.ParseDate(v)
	if err != nil {
		return nil
	}
	return &t
}
