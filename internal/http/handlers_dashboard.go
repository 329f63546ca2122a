package http

import (
	"net/http"

	"fintrack/internal/analytics"
)

// dashboardFor resolves ?year=&month=&months= and computes the aggregates.
// It writes a 400 and returns false on bad parameters.
func (s *Server) dashboardFor(w http.ResponseWriter, r *http.Request) (analytics.Dashboard, bool) {
	query := r.URL.Query()
	now := s.now()
	params, err := ParseMonthParams(query, now)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return analytics.Dashboard{}, false
	}
	window, err := ParseWindow(query)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return analytics.Dashboard{}, false
	}
	return s.dashboard.Dashboard(params.Reference(now.Location()), window), true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboardFor(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Data(d).Write(w)
}

// handleDashboardPart serves one section of the dashboard.
func (s *Server) handleDashboardPart(part func(analytics.Dashboard) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := s.dashboardFor(w, r)
		if !ok {
			return
		}
		NewJSONResponse().Data(part(d)).Write(w)
	}
}
