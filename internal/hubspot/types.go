// Package hubspot provides a client for the HubSpot CRM v3 API.
package hubspot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownObjectType is returned for object types outside the supported set.
var ErrUnknownObjectType = errors.New("unknown object type")

// ObjectType is a HubSpot CRM object type.
type ObjectType string

// Supported object types.
const (
	ObjectTypeCompanies ObjectType = "companies"
	ObjectTypeContacts  ObjectType = "contacts"
	ObjectTypeDeals     ObjectType = "deals"
	ObjectTypeTickets   ObjectType = "tickets"
)

// ObjectTypes returns every supported object type in sync order.
func ObjectTypes() []ObjectType {
	return []ObjectType{
		ObjectTypeContacts,
		ObjectTypeCompanies,
		ObjectTypeDeals,
		ObjectTypeTickets,
	}
}

// ParseObjectType returns the ObjectType named by s.
func ParseObjectType(s string) (ObjectType, error) {
	t := ObjectType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownObjectType, s)
	}
	return t, nil
}

// Singular returns the singular name used in item IDs and the objectType property.
func (t ObjectType) Singular() string {
	switch t {
	case ObjectTypeCompanies:
		return "company"
	case ObjectTypeContacts:
		return "contact"
	case ObjectTypeDeals:
		return "deal"
	case ObjectTypeTickets:
		return "ticket"
	default:
		return string(t)
	}
}

// Valid reports whether t is a supported object type.
func (t ObjectType) Valid() bool {
	switch t {
	case ObjectTypeCompanies, ObjectTypeContacts, ObjectTypeDeals, ObjectTypeTickets:
		return true
	default:
		return false
	}
}

// AccountInfo describes the HubSpot portal the API key belongs to.
type AccountInfo struct {
	// AccountType is the portal type (e.g., STANDARD, DEVELOPER_TEST).
	AccountType string `json:"accountType,omitempty"`

	// CompanyCurrency is the default currency of the portal.
	CompanyCurrency string `json:"companyCurrency,omitempty"`

	// DataHostingLocation is the region hosting the portal data.
	DataHostingLocation string `json:"dataHostingLocation,omitempty"`

	// PortalID is the HubSpot portal (hub) ID.
	PortalID int64 `json:"portalId"`

	// TimeZone is the portal time zone.
	TimeZone string `json:"timeZone,omitempty"`

	// UIDomain is the domain of the HubSpot UI for the portal.
	UIDomain string `json:"uiDomain,omitempty"`
}

// APIError is a non-success response from HubSpot.
type APIError struct {
	// Category is the HubSpot error category (e.g., VALIDATION_ERROR).
	Category string `json:"category,omitempty"`

	// CorrelationID identifies the failed request in HubSpot support.
	CorrelationID string `json:"correlationId,omitempty"`

	// Message is the error message.
	Message string `json:"message"`

	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("hubspot API error %d (%s): %s", e.StatusCode, e.Category, e.Message)
	}
	return fmt.Sprintf("hubspot API error %d: %s", e.StatusCode, e.Message)
}

// Object is a CRM record as returned by the objects and search endpoints.
type Object struct {
	// Archived reports whether the record is archived.
	Archived bool `json:"archived,omitempty"`

	// CreatedAt is when the record was created.
	CreatedAt string `json:"createdAt,omitempty"`

	// ID is the HubSpot record ID.
	ID string `json:"id"`

	// Properties holds the requested record properties. Unset properties are nil.
	Properties map[string]*string `json:"properties"`

	// UpdatedAt is when the record was last updated.
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// ObjectResults groups search results for one object type.
type ObjectResults struct {
	// ObjectType is the type the results belong to.
	ObjectType ObjectType `json:"objectType"`

	// Results are the matching records.
	Results []Object `json:"results"`
}

// Page is one page of records from a list or search request.
type Page struct {
	// Paging holds the cursor for the next page, if any.
	Paging *Paging `json:"paging,omitempty"`

	// Results are the records on this page.
	Results []Object `json:"results"`

	// Total is the total number of matching records (search only).
	Total int `json:"total,omitempty"`
}

// NextCursor returns the cursor for the following page, or empty when this is the last page.
func (p *Page) NextCursor() string {
	if p == nil || p.Paging == nil || p.Paging.Next == nil {
		return ""
	}
	return p.Paging.Next.After
}

// Paging holds pagination links.
type Paging struct {
	// Next points at the following page.
	Next *PagingNext `json:"next,omitempty"`
}

// PagingNext is the cursor for the following page.
type PagingNext struct {
	// After is the opaque cursor to pass to the next request.
	After string `json:"after"`

	// Link is the full URL of the next page.
	Link string `json:"link,omitempty"`
}

// searchRequest is the body of a CRM search request.
type searchRequest struct {
	// After is the paging cursor.
	After string `json:"after,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit"`

	// Properties are the properties to return.
	Properties []string `json:"properties,omitempty"`

	// Query is the free-text query.
	Query string `json:"query,omitempty"`

	// Sorts orders the results.
	Sorts []searchSort `json:"sorts,omitempty"`
}

// searchSort is a single sort clause.
type searchSort struct {
	// Direction is ASCENDING or DESCENDING.
	Direction string `json:"direction"`

	// PropertyName is the property to sort on.
	PropertyName string `json:"propertyName"`
}
