// Package sync pushes HubSpot CRM records into a Microsoft Graph external connection.
package sync

import (
	"context"
	"time"

	"github.com/peteski22/hubgraph/internal/graph"
	"github.com/peteski22/hubgraph/internal/hubspot"
)

// Destination defines the Graph operations required by the sync service.
type Destination interface {
	// UpsertItem creates or replaces an item in a connection.
	UpsertItem(ctx context.Context, connectionID string, item *graph.ExternalItem) error
}

// Source defines the HubSpot operations required by the sync service.
type Source interface {
	// Count returns the total number of records of the given type.
	Count(ctx context.Context, objectType hubspot.ObjectType) (int, error)

	// List returns one page of records of the given type.
	List(ctx context.Context, objectType hubspot.ObjectType, limit int, after string) (*hubspot.Page, error)
}

// StateStore persists the outcome of the most recent sync run.
type StateStore interface {
	// LastRun returns the stats of the most recent run, or nil if none has been recorded.
	LastRun(ctx context.Context) (*Stats, error)

	// SaveRun records the stats of a completed run.
	SaveRun(ctx context.Context, stats *Stats) error
}

// Stats contains the outcome of one sync run.
type Stats struct {
	// Companies is the number of companies in HubSpot after a successful company sync.
	Companies int `json:"companies"`

	// Contacts is the number of contacts in HubSpot after a successful contact sync.
	Contacts int `json:"contacts"`

	// Deals is the number of deals in HubSpot after a successful deal sync.
	Deals int `json:"deals"`

	// DryRun indicates no items were written to Graph.
	DryRun bool `json:"dryRun,omitempty"`

	// Errors is the number of object types whose sync aborted.
	Errors int `json:"errors"`

	// FinishedAt is when the run completed.
	FinishedAt time.Time `json:"finishedAt"`

	// RecordErrors is the number of individual records that were skipped.
	RecordErrors int `json:"recordErrors"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"startedAt"`

	// Tickets is the number of tickets in HubSpot after a successful ticket sync.
	Tickets int `json:"tickets"`
}

// Count returns the recorded count for an object type.
func (s *Stats) Count(objectType hubspot.ObjectType) int {
	switch objectType {
	case hubspot.ObjectTypeCompanies:
		return s.Companies
	case hubspot.ObjectTypeContacts:
		return s.Contacts
	case hubspot.ObjectTypeDeals:
		return s.Deals
	case hubspot.ObjectTypeTickets:
		return s.Tickets
	default:
		return 0
	}
}

// Duration returns how long the run took.
func (s *Stats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// setCount records the count for an object type.
func (s *Stats) setCount(objectType hubspot.ObjectType, count int) {
	switch objectType {
	case hubspot.ObjectTypeCompanies:
		s.Companies = count
	case hubspot.ObjectTypeContacts:
		s.Contacts = count
	case hubspot.ObjectTypeDeals:
		s.Deals = count
	case hubspot.ObjectTypeTickets:
		s.Tickets = count
	}
}
