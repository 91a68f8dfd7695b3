package xeroclient

// Phone types used when picking a contact's number.
const (
	PhoneTypeMobile  = "MOBILE"
	PhoneTypeDefault = "DEFAULT"
)

// Address types used when mirroring contact addresses.
const (
	AddressTypeStreet = "STREET"
	AddressTypePOBox  = "POBOX"
)

// Invoice type and status constants for accounts-receivable invoices.
const (
	InvoiceTypeAccRec        = "ACCREC"
	InvoiceStatusAuthorised  = "AUTHORISED"
	LineAmountTypesExclusive = "Exclusive"
)

// Phone is a contact phone number.
type Phone struct {
	PhoneType   string `json:"PhoneType,omitempty"`
	PhoneNumber string `json:"PhoneNumber,omitempty"`
}

// Address is a contact address.
type Address struct {
	AddressType  string `json:"AddressType,omitempty"`
	AddressLine1 string `json:"AddressLine1,omitempty"`
	City         string `json:"City,omitempty"`
	Region       string `json:"Region,omitempty"`
	PostalCode   string `json:"PostalCode,omitempty"`
}

// Contact is a Xero accounting contact.
type Contact struct {
	ContactID    string    `json:"ContactID,omitempty"`
	Name         string    `json:"Name,omitempty"`
	FirstName    string    `json:"FirstName,omitempty"`
	LastName     string    `json:"LastName,omitempty"`
	EmailAddress string    `json:"EmailAddress,omitempty"`
	Phones       []Phone   `json:"Phones,omitempty"`
	Addresses    []Address `json:"Addresses,omitempty"`
}

// SalesDetails carries an item's sales pricing.
type SalesDetails struct {
	UnitPrice   float64 `json:"UnitPrice"`
	AccountCode string  `json:"AccountCode,omitempty"`
}

// Item is a Xero billable item.
type Item struct {
	ItemID       string        `json:"ItemID,omitempty"`
	Code         string        `json:"Code,omitempty"`
	Name         string        `json:"Name,omitempty"`
	Description  string        `json:"Description,omitempty"`
	SalesDetails *SalesDetails `json:"SalesDetails,omitempty"`
}

// LineItem is one invoice line.
type LineItem struct {
	Description string  `json:"Description,omitempty"`
	Quantity    float64 `json:"Quantity"`
	UnitAmount  float64 `json:"UnitAmount"`
	AccountCode string  `json:"AccountCode,omitempty"`
}

// Invoice is a Xero invoice. Dates are the API's ISO strings; use
// ParseDate to interpret them.
type Invoice struct {
	InvoiceID       string     `json:"InvoiceID,omitempty"`
	InvoiceNumber   string     `json:"InvoiceNumber,omitempty"`
	Type            string     `json:"Type,omitempty"`
	Status          string     `json:"Status,omitempty"`
	Contact         *Contact   `json:"Contact,omitempty"`
	Date            string     `json:"Date,omitempty"`
	DueDate         string     `json:"DueDate,omitempty"`
	LineAmountTypes string     `json:"LineAmountTypes,omitempty"`
	LineItems       []LineItem `json:"LineItems,omitempty"`
	SubTotal        *float64   `json:"SubTotal,omitempty"`
	TotalTax        *float64   `json:"TotalTax,omitempty"`
	Total           *float64   `json:"Total,omitempty"`
	AmountPaid      *float64   `json:"AmountPaid,omitempty"`
	AmountDue       *float64   `json:"AmountDue,omitempty"`
	CurrencyCode    string     `json:"CurrencyCode,omitempty"`
}

// contactsEnvelope wraps contact requests and responses.
type contactsEnvelope struct {
	Contacts []Contact `json:"Contacts"`
}

// itemsEnvelope wraps item requests and responses.
type itemsEnvelope struct {
	Items []Item `json:"Items"`
}

// invoicesEnvelope wraps invoice requests and responses.
type invoicesEnvelope struct {
	Invoices []Invoice `json:"Invoices"`
}
