package hubspot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/peteski22/hubgraph/internal/graph"
)

const (
	// appURL is the base URL of the HubSpot web UI.
	appURL = "https://app.hubspot.com"

	// itemTimeLayout is the UTC timestamp layout Graph expects, with milliseconds.
	itemTimeLayout = "2006-01-02T15:04:05.000Z"
)

// transformer converts a raw record to an external item.
type transformer func(obj Object, now time.Time) (*graph.ExternalItem, error)

// transformers is the per-type dispatch table used by ToExternalItem.
var transformers = map[ObjectType]transformer{
	ObjectTypeCompanies: func(obj Object, now time.Time) (*graph.ExternalItem, error) {
		c, err := DecodeCompany(obj)
		if err != nil {
			return nil, err
		}
		return c.ToDomainType(now)
	},
	ObjectTypeContacts: func(obj Object, now time.Time) (*graph.ExternalItem, error) {
		c, err := DecodeContact(obj)
		if err != nil {
			return nil, err
		}
		return c.ToDomainType(now)
	},
	ObjectTypeDeals: func(obj Object, now time.Time) (*graph.ExternalItem, error) {
		d, err := DecodeDeal(obj)
		if err != nil {
			return nil, err
		}
		return d.ToDomainType(now)
	},
	ObjectTypeTickets: func(obj Object, now time.Time) (*graph.ExternalItem, error) {
		t, err := DecodeTicket(obj)
		if err != nil {
			return nil, err
		}
		return t.ToDomainType(now)
	},
}

// ToExternalItem converts a record of the given type to its Graph representation.
// The item has no ACL; the caller sets it for the target tenant.
// now is used as the last-modified time when the record has none.
func ToExternalItem(objectType ObjectType, obj Object, now time.Time) (*graph.ExternalItem, error) {
	transform, ok := transformers[objectType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjectType, objectType)
	}
	return transform(obj, now)
}

// ToDomainType converts a Company to its Graph external item representation.
func (c *Company) ToDomainType(now time.Time) (*graph.ExternalItem, error) {
	lastModified, err := normalizeDate(c.LastModified, now)
	if err != nil {
		return nil, err
	}

	name := str(c.Name)
	industry := str(c.Industry)

	return &graph.ExternalItem{
		Content: graph.Content{
			Type:  graph.ContentTypeText,
			Value: fmt.Sprintf("%s - %s - %s", name, str(c.Domain), industry),
		},
		ID: itemID(ObjectTypeCompanies, c.ID),
		Properties: graph.ItemProperties{
			Company: &name,
			Content: fmt.Sprintf("Company: %s\nDomain: %s\nIndustry: %s\nLocation: %s, %s %s",
				name, str(c.Domain), industry, str(c.City), str(c.State), str(c.Country)),
			Industry:     &industry,
			LastModified: lastModified,
			ObjectType:   ObjectTypeCompanies.Singular(),
			Title:        titleOr(name, "Unknown Company"),
			URL:          recordURL(ObjectTypeCompanies, c.ID),
		},
	}, nil
}

// ToDomainType converts a Contact to its Graph external item representation.
func (c *Contact) ToDomainType(now time.Time) (*graph.ExternalItem, error) {
	lastModified, err := normalizeDate(c.LastModified, now)
	if err != nil {
		return nil, err
	}

	fullName := fmt.Sprintf("%s %s", str(c.FirstName), str(c.LastName))
	email := str(c.Email)
	company := str(c.Company)

	return &graph.ExternalItem{
		Content: graph.Content{
			Type:  graph.ContentTypeText,
			Value: fmt.Sprintf("%s - %s - %s", fullName, email, company),
		},
		ID: itemID(ObjectTypeContacts, c.ID),
		Properties: graph.ItemProperties{
			Company: &company,
			Content: fmt.Sprintf("Contact: %s\nEmail: %s\nCompany: %s\nPhone: %s",
				fullName, email, company, str(c.Phone)),
			Email:        &email,
			LastModified: lastModified,
			ObjectType:   ObjectTypeContacts.Singular(),
			Title:        titleOr(fullName, "Unknown Contact"),
			URL:          recordURL(ObjectTypeContacts, c.ID),
		},
	}, nil
}

// ToDomainType converts a Deal to its Graph external item representation.
func (d *Deal) ToDomainType(now time.Time) (*graph.ExternalItem, error) {
	lastModified, err := normalizeDate(d.LastModified, now)
	if err != nil {
		return nil, err
	}

	name := str(d.DealName)
	stage := str(d.DealStage)
	amountText := str(d.Amount)
	if amountText == "" {
		amountText = "0"
	}
	amount := parseAmount(d.Amount)

	return &graph.ExternalItem{
		Content: graph.Content{
			Type:  graph.ContentTypeText,
			Value: fmt.Sprintf("%s - $%s - %s", name, amountText, stage),
		},
		ID: itemID(ObjectTypeDeals, d.ID),
		Properties: graph.ItemProperties{
			Content: fmt.Sprintf("Deal: %s\nAmount: $%s\nStage: %s\nPipeline: %s\nClose Date: %s",
				name, amountText, stage, str(d.Pipeline), str(d.CloseDate)),
			DealAmount:   &amount,
			DealStage:    &stage,
			LastModified: lastModified,
			ObjectType:   ObjectTypeDeals.Singular(),
			Title:        titleOr(name, "Unknown Deal"),
			URL:          recordURL(ObjectTypeDeals, d.ID),
		},
	}, nil
}

// ToDomainType converts a Ticket to its Graph external item representation.
func (t *Ticket) ToDomainType(now time.Time) (*graph.ExternalItem, error) {
	lastModified, err := normalizeDate(t.LastModified, now)
	if err != nil {
		return nil, err
	}

	subject := str(t.Subject)
	priority := str(t.Priority)
	stage := str(t.PipelineStage)

	return &graph.ExternalItem{
		Content: graph.Content{
			Type:  graph.ContentTypeText,
			Value: fmt.Sprintf("%s - %s - %s", subject, priority, stage),
		},
		ID: itemID(ObjectTypeTickets, t.ID),
		Properties: graph.ItemProperties{
			Content: fmt.Sprintf("Ticket: %s\nPriority: %s\nStatus: %s\nCategory: %s",
				subject, priority, stage, str(t.Category)),
			LastModified: lastModified,
			ObjectType:   ObjectTypeTickets.Singular(),
			Title:        titleOr(subject, "Unknown Ticket"),
			URL:          recordURL(ObjectTypeTickets, t.ID),
		},
	}, nil
}

// itemID returns the external item ID for a record.
func itemID(objectType ObjectType, id string) string {
	return objectType.Singular() + "_" + id
}

// normalizeDate parses a HubSpot date and formats it as a UTC timestamp.
// A missing or blank value yields now.
func normalizeDate(value *string, now time.Time) (string, error) {
	raw := strings.TrimSpace(str(value))
	if raw == "" {
		return now.UTC().Format(itemTimeLayout), nil
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return "", fmt.Errorf("parsing date %q: %w", raw, err)
	}

	return t.UTC().Format(itemTimeLayout), nil
}

// parseAmount parses a deal amount, returning 0 when missing or malformed.
func parseAmount(value *string) float64 {
	amount, err := strconv.ParseFloat(strings.TrimSpace(str(value)), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return amount
}

// recordURL links to a record in the HubSpot UI.
func recordURL(objectType ObjectType, id string) string {
	return fmt.Sprintf("%s/%s/%s", appURL, objectType, id)
}

// str dereferences an optional property, treating nil as empty.
func str(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// titleOr returns the trimmed title, or fallback when it is blank.
func titleOr(title string, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return fallback
}
