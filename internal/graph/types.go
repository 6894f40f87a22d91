// Package graph provides a client for the Microsoft Graph external connections API.
package graph

const (
	// ACLAccessTypeGrant grants access to the principal.
	ACLAccessTypeGrant = "grant"

	// ACLTypeEveryone applies the entry to everyone in the tenant.
	ACLTypeEveryone = "everyone"

	// ContentTypeText marks item content as plain text.
	ContentTypeText = "text"

	// ExternalItemBaseType is the base type of every schema registered for a connection.
	ExternalItemBaseType = "microsoft.graph.externalItem"
)

// ACL is an access control entry on an external item.
type ACL struct {
	// AccessType is either grant or deny.
	AccessType string `json:"accessType"`

	// Type is the principal type (e.g., user, group, everyone).
	Type string `json:"type"`

	// Value identifies the principal. For everyone entries this is the tenant ID.
	Value string `json:"value"`
}

// Connection is an external connection registered in Microsoft Graph.
type Connection struct {
	// Description is the connection description shown to administrators.
	Description string `json:"description,omitempty"`

	// ID is the unique connection identifier.
	ID string `json:"id,omitempty"`

	// Name is the display name of the connection.
	Name string `json:"name,omitempty"`

	// State is the provisioning state (read-only).
	State string `json:"state,omitempty"`
}

// Content is the searchable body of an external item.
type Content struct {
	// Type is the content type (text or html).
	Type string `json:"type"`

	// Value is the content body.
	Value string `json:"value"`
}

// ExternalItem is a searchable item pushed into an external connection.
type ExternalItem struct {
	// ACL lists the access control entries for the item.
	ACL []ACL `json:"acl"`

	// Content is the full-text body of the item.
	Content Content `json:"content"`

	// ID is the stable item identifier within the connection.
	ID string `json:"id"`

	// Properties are the schema-defined item properties.
	Properties ItemProperties `json:"properties"`
}

// ItemProperties holds the property values of an external item.
// Type-specific properties are pointers so that they are present, possibly empty,
// only on the item types that define them.
type ItemProperties struct {
	// Company is the associated company name (contacts and companies).
	Company *string `json:"company,omitempty"`

	// Content is a multi-line summary of the record.
	Content string `json:"content"`

	// DealAmount is the monetary deal value (deals).
	DealAmount *float64 `json:"dealAmount,omitempty"`

	// DealStage is the pipeline stage of the deal (deals).
	DealStage *string `json:"dealStage,omitempty"`

	// Email is the contact email address (contacts).
	Email *string `json:"email,omitempty"`

	// Industry is the company industry (companies).
	Industry *string `json:"industry,omitempty"`

	// LastModified is the RFC 3339 time the source record last changed.
	LastModified string `json:"lastModified"`

	// ObjectType is the singular source record kind (e.g., contact).
	ObjectType string `json:"objectType"`

	// Title is the display title of the item.
	Title string `json:"title"`

	// URL links back to the record in the source system.
	URL string `json:"url"`
}

// Property describes a single property in a connection schema.
type Property struct {
	// IsQueryable allows the property in query filters.
	IsQueryable bool `json:"isQueryable,omitempty"`

	// IsRefinable allows the property as a search refiner.
	IsRefinable bool `json:"isRefinable,omitempty"`

	// IsRetrievable returns the property in search results.
	IsRetrievable bool `json:"isRetrievable,omitempty"`

	// IsSearchable includes the property in the full-text index.
	IsSearchable bool `json:"isSearchable,omitempty"`

	// Labels are semantic labels (e.g., title, url).
	Labels []string `json:"labels,omitempty"`

	// Name is the property name.
	Name string `json:"name"`

	// Type is the property data type (e.g., string, double, dateTime).
	Type string `json:"type"`
}

// Schema is the property schema of an external connection.
type Schema struct {
	// BaseType is always ExternalItemBaseType.
	BaseType string `json:"baseType"`

	// Properties lists the schema properties.
	Properties []Property `json:"properties"`
}

// graphErrorResponse represents the error body returned by Microsoft Graph.
type graphErrorResponse struct {
	// Error holds the error details.
	Error struct {
		// Code is the Graph error code.
		Code string `json:"code"`

		// Message is the human-readable error message.
		Message string `json:"message"`
	} `json:"error"`
}
