package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/peteski22/hubgraph/internal/hubspot"
)

// Health states reported by /api/health.
const (
	healthDegraded     = "degraded"
	healthHealthy      = "healthy"
	serviceConnected   = "connected"
	serviceUnreachable = "disconnected"
)

// healthReport is the data of a health response.
type healthReport struct {
	Services map[string]string `json:"services"`
	Status   string            `json:"status"`
	Time     time.Time         `json:"timestamp"`
}

// searchGroup is the search result for one object type.
type searchGroup struct {
	Count      int                `json:"count"`
	Items      []hubspot.Object   `json:"items"`
	ObjectType hubspot.ObjectType `json:"objectType"`
}

// searchResponse is the data of a search response.
type searchResponse struct {
	Query   string        `json:"query"`
	Results []searchGroup `json:"results"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		Data: map[string]any{
			"name":        "HubSpot Graph Connector",
			"description": "Microsoft Graph connector for HubSpot CRM integration",
			"endpoints": map[string]any{
				"health":  "GET /api/health",
				"metrics": "GET /metrics",
				"connector": map[string]string{
					"create":       "POST /api/connector",
					"createSchema": "POST /api/connector/schema",
					"delete":       "DELETE /api/connector",
					"jobs":         "GET /api/connector/jobs",
					"status":       "GET /api/connector/status",
					"sync":         "POST /api/connector/sync",
					"syncJob":      "GET /api/connector/sync/{jobID}",
				},
				"hubspot": map[string]string{
					"account":   "GET /api/hubspot/account",
					"companies": "GET /api/hubspot/companies",
					"contacts":  "GET /api/hubspot/contacts",
					"deals":     "GET /api/hubspot/deals",
					"search":    "GET /api/hubspot/search",
					"tickets":   "GET /api/hubspot/tickets",
				},
			},
		},
		Success: true,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{
		Message: "Endpoint not found",
		Path:    r.URL.Path,
		Success: false,
	})
}

func (s *Server) handleCreateConnector(w http.ResponseWriter, r *http.Request) {
	conn, err := s.connector.Create(r.Context())
	if err != nil {
		s.writeError(w, r, "Failed to create connector", err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, "Connector created successfully", conn)
}

func (s *Server) handleCreateSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.connector.CreateSchema(r.Context())
	if err != nil {
		s.writeError(w, r, "Failed to create schema", err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, "Schema created successfully", schema)
}

func (s *Server) handleDeleteConnector(w http.ResponseWriter, r *http.Request) {
	if err := s.connector.Delete(r.Context()); err != nil {
		s.writeError(w, r, "Failed to delete connector", err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Connector deleted successfully", nil)
}

func (s *Server) handleConnectorStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.connector.Status(r.Context())
	if err != nil {
		s.writeError(w, r, "Failed to get connection status", err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "", conn)
}

func (s *Server) handleStartSync(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Enqueue(r.Context())
	if err != nil {
		s.writeError(w, r, "Failed to start data synchronization", err)
		return
	}
	s.writeSuccess(w, http.StatusAccepted, "Data synchronization started", job)
}

func (s *Server) handleSyncJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Job(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, r, "Failed to get sync job", err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "", job)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	list, err := s.jobs.Jobs(r.Context())
	if err != nil {
		s.writeError(w, r, "Failed to list sync jobs", err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "", list)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, "Invalid request parameters", err)
		return
	}

	s.logger.Info("searching HubSpot", "query", q.Query, "object_types", q.types())

	results, err := s.crm.SearchAll(r.Context(), q.Query, q.types(), hubspot.MaxPageSize)
	if err != nil {
		s.writeError(w, r, "Failed to search HubSpot", err)
		return
	}

	resp := searchResponse{Query: q.Query, Results: make([]searchGroup, 0, len(results))}
	for _, result := range results {
		items := result.Results
		if len(items) > q.Limit {
			items = items[:q.Limit]
		}
		resp.Results = append(resp.Results, searchGroup{
			Count:      len(result.Results),
			Items:      items,
			ObjectType: result.ObjectType,
		})
	}

	s.writeSuccess(w, http.StatusOK, "", resp)
}

// handleList serves one page of records of the given type.
func (s *Server) handleList(objectType hubspot.ObjectType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseListQuery(r.URL.Query())
		if err != nil {
			s.writeError(w, r, "Invalid request parameters", err)
			return
		}

		page, err := s.crm.List(r.Context(), objectType, q.Limit, q.After)
		if err != nil {
			s.writeError(w, r, "Failed to fetch "+string(objectType), err)
			return
		}
		s.writeSuccess(w, http.StatusOK, "", page)
	}
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	info, err := s.crm.AccountInfo(r.Context())
	if err != nil {
		s.writeError(w, r, "Failed to fetch account info", err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "", info)
}

// handleHealth probes HubSpot and Graph. Either failing reports 503 degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := healthReport{
		Services: map[string]string{
			"graph":   serviceConnected,
			"hubspot": serviceConnected,
		},
		Status: healthHealthy,
		Time:   s.now().UTC(),
	}

	if _, err := s.crm.AccountInfo(r.Context()); err != nil {
		s.logger.Warn("HubSpot health check failed", "error", err)
		report.Services["hubspot"] = serviceUnreachable
		report.Status = healthDegraded
	}
	if _, err := s.connector.Status(r.Context()); err != nil {
		s.logger.Warn("Graph health check failed", "error", err)
		report.Services["graph"] = serviceUnreachable
		report.Status = healthDegraded
	}

	status := http.StatusOK
	if report.Status != healthHealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, envelope{
		Data:    report,
		Success: status == http.StatusOK,
	})
}
