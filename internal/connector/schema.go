package connector

import "github.com/peteski22/hubgraph/internal/graph"

// ItemSchema returns the property schema registered for HubSpot items.
func ItemSchema() *graph.Schema {
	return &graph.Schema{
		BaseType: graph.ExternalItemBaseType,
		Properties: []graph.Property{
			{Name: "title", Type: "string", IsSearchable: true, IsRetrievable: true, IsQueryable: true, Labels: []string{"title"}},
			{Name: "content", Type: "string", IsSearchable: true, IsRetrievable: true},
			{Name: "url", Type: "string", IsRetrievable: true, Labels: []string{"url"}},
			{Name: "objectType", Type: "string", IsSearchable: true, IsRetrievable: true, IsQueryable: true, IsRefinable: true},
			{Name: "email", Type: "string", IsSearchable: true, IsRetrievable: true, IsQueryable: true},
			{Name: "company", Type: "string", IsSearchable: true, IsRetrievable: true, IsQueryable: true, IsRefinable: true},
			{Name: "industry", Type: "string", IsSearchable: true, IsRetrievable: true, IsRefinable: true},
			{Name: "lastModified", Type: "dateTime", IsRetrievable: true, IsQueryable: true, IsRefinable: true},
			{Name: "dealAmount", Type: "double", IsRetrievable: true, IsQueryable: true, IsRefinable: true},
			{Name: "dealStage", Type: "string", IsSearchable: true, IsRetrievable: true, IsRefinable: true},
		},
	}
}
