package hubspot

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// objectProfile describes the properties requested and the sort key for one object type.
type objectProfile struct {
	// properties are the record properties to request.
	properties []string

	// sortProperty is the last-modified property used to order results.
	sortProperty string
}

// objectProfiles is the per-type dispatch table for list and search requests.
var objectProfiles = map[ObjectType]objectProfile{
	ObjectTypeContacts: {
		properties:   []string{"firstname", "lastname", "email", "company", "phone", "lastmodifieddate"},
		sortProperty: "lastmodifieddate",
	},
	ObjectTypeCompanies: {
		properties:   []string{"name", "domain", "industry", "city", "state", "country", "hs_lastmodifieddate"},
		sortProperty: "hs_lastmodifieddate",
	},
	ObjectTypeDeals: {
		properties:   []string{"dealname", "amount", "dealstage", "pipeline", "closedate", "hs_lastmodifieddate"},
		sortProperty: "hs_lastmodifieddate",
	},
	ObjectTypeTickets: {
		properties: []string{
			"subject",
			"content",
			"hs_ticket_priority",
			"hs_pipeline_stage",
			"hs_ticket_category",
			"hs_lastmodifieddate",
		},
		sortProperty: "hs_lastmodifieddate",
	},
}

// profileFor returns the list and search profile for a type.
func profileFor(objectType ObjectType) (objectProfile, error) {
	profile, ok := objectProfiles[objectType]
	if !ok {
		return objectProfile{}, fmt.Errorf("%w: %q", ErrUnknownObjectType, objectType)
	}
	return profile, nil
}

// Count returns the total number of records of the given type.
func (c *Client) Count(ctx context.Context, objectType ObjectType) (int, error) {
	page, err := c.search(ctx, objectType, "", 1)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", objectType, err)
	}
	return page.Total, nil
}

// Search runs a free-text query against one object type, newest first.
func (c *Client) Search(ctx context.Context, objectType ObjectType, query string, limit int) (*Page, error) {
	page, err := c.search(ctx, objectType, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", objectType, err)
	}
	return page, nil
}

// SearchAll runs query against every requested type concurrently.
// Results keep the order of objectTypes and omit types with no matches.
// A type whose search fails is logged and treated as having no matches.
func (c *Client) SearchAll(
	ctx context.Context,
	query string,
	objectTypes []ObjectType,
	limit int,
) ([]ObjectResults, error) {
	if len(objectTypes) == 0 {
		objectTypes = ObjectTypes()
	}

	found := make([][]Object, len(objectTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, objectType := range objectTypes {
		g.Go(func() error {
			page, err := c.Search(gctx, objectType, query, limit)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("search failed for object type",
					"object_type", objectType,
					"error", err,
				)
				return nil
			}
			found[i] = page.Results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]ObjectResults, 0, len(objectTypes))
	for i, objectType := range objectTypes {
		if len(found[i]) == 0 {
			continue
		}
		results = append(results, ObjectResults{ObjectType: objectType, Results: found[i]})
	}

	return results, nil
}

// search posts a search request for one type.
func (c *Client) search(ctx context.Context, objectType ObjectType, query string, limit int) (*Page, error) {
	profile, err := profileFor(objectType)
	if err != nil {
		return nil, err
	}

	body := searchRequest{
		Limit:      clampLimit(limit),
		Properties: profile.properties,
		Query:      query,
		Sorts:      []searchSort{{Direction: "DESCENDING", PropertyName: profile.sortProperty}},
	}

	reqURL := fmt.Sprintf("%s/crm/v3/objects/%s/search", c.baseURL, objectType)

	var page Page
	if err := c.doRequest(ctx, http.MethodPost, reqURL, body, &page); err != nil {
		return nil, err
	}

	return &page, nil
}
