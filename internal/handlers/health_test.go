package handlers

import (
	"net/http"
)

func (s *HandlerTestSuite) TestHealth() {
	w := s.doJSON(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"status":"ok"`)
}

func (s *HandlerTestSuite) TestMetricsEndpoint() {
	s.doJSON(http.MethodGet, "/health", nil, nil)

	w := s.doJSON(http.MethodGet, "/metrics", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `report_hub_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
