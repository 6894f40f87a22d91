package server

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/peteski22/hubgraph/internal/hubspot"
)

const (
	defaultListLimit   = 20
	defaultSearchLimit = 10
	maxLimit           = hubspot.MaxPageSize
)

// listQuery holds the parameters of a record list request.
type listQuery struct {
	After string `json:"after"`
	Limit int    `json:"limit"`
}

// Validate implements validation.Validatable.
func (q listQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Limit, limitRules()...),
	)
}

// searchQuery holds the parameters of a cross-type search request.
type searchQuery struct {
	Limit       int      `json:"limit"`
	ObjectTypes []string `json:"objectTypes"`
	Query       string   `json:"query"`
}

// Validate implements validation.Validatable.
func (q searchQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Query, validation.Required),
		validation.Field(&q.ObjectTypes, validation.Each(validation.In(objectTypeNames()...).
			Error("must be one of contacts, companies, deals, tickets"))),
		validation.Field(&q.Limit, limitRules()...),
	)
}

// types returns the requested object types, or every type when none were given.
func (q searchQuery) types() []hubspot.ObjectType {
	if len(q.ObjectTypes) == 0 {
		return hubspot.ObjectTypes()
	}
	types := make([]hubspot.ObjectType, 0, len(q.ObjectTypes))
	for _, name := range q.ObjectTypes {
		types = append(types, hubspot.ObjectType(name))
	}
	return types
}

func limitRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("must be between 1 and 100"),
		validation.Min(1).Error("must be between 1 and 100"),
		validation.Max(maxLimit).Error("must be between 1 and 100"),
	}
}

func objectTypeNames() []any {
	names := make([]any, 0, len(hubspot.ObjectTypes()))
	for _, t := range hubspot.ObjectTypes() {
		names = append(names, string(t))
	}
	return names
}

// parseListQuery reads and validates limit and after.
func parseListQuery(values url.Values) (listQuery, error) {
	limit, err := parseLimit(values, defaultListLimit)
	if err != nil {
		return listQuery{}, err
	}

	q := listQuery{
		After: strings.TrimSpace(values.Get("after")),
		Limit: limit,
	}
	return q, q.Validate()
}

// parseSearchQuery reads and validates query, objectTypes and limit.
// objectTypes may be repeated or comma separated.
func parseSearchQuery(values url.Values) (searchQuery, error) {
	limit, err := parseLimit(values, defaultSearchLimit)
	if err != nil {
		return searchQuery{}, err
	}

	var objectTypes []string
	for _, raw := range values["objectTypes"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				objectTypes = append(objectTypes, name)
			}
		}
	}

	q := searchQuery{
		Limit:       limit,
		ObjectTypes: objectTypes,
		Query:       strings.TrimSpace(values.Get("query")),
	}
	return q, q.Validate()
}

func parseLimit(values url.Values, defaultLimit int) (int, error) {
	raw := strings.TrimSpace(values.Get("limit"))
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Errors{"limit": errors.New("must be an integer")}
	}
	return limit, nil
}
