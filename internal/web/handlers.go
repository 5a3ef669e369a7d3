// internal/web/handlers.go
package web

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unifimon/internal/checkapi"
	"unifimon/internal/database"
	"unifimon/internal/graphing"
)

type HostResponse struct {
	*database.Host
	Status       string    `json:"status"`
	LastCheck    time.Time `json:"last_check"`
	ServiceCount int       `json:"service_count"`
	Configured   bool      `json:"configured"`
}

// ServiceResponse is a discovered service together with its latest result.
type ServiceResponse struct {
	database.Service
	State           string           `json:"state"`
	Status          *database.Status `json:"status,omitempty"`
	LastStateChange time.Time        `json:"last_state_change,omitempty"`
	Since           string           `json:"since,omitempty"`
	Perfometer      *PerfometerValue `json:"perfometer,omitempty"`
}

type PerfometerValue struct {
	graphing.Perfometer
	Fill float64 `json:"fill"`
}

type PluginResponse struct {
	Name              string          `json:"name"`
	Section           string          `json:"section"`
	ServiceName       string          `json:"service_name"`
	DiscoveryRuleset  string          `json:"discovery_ruleset,omitempty"`
	DiscoveryDefaults checkapi.Params `json:"discovery_defaults,omitempty"`
	CheckRuleset      string          `json:"check_ruleset,omitempty"`
	CheckDefaults     checkapi.Params `json:"check_defaults,omitempty"`
}

func (s *Server) getHosts(c *gin.Context) {
	filters := database.HostFilters{Source: c.Query("source")}
	if v := c.Query("enabled"); v != "" {
		enabled := v == "true"
		filters.Enabled = &enabled
	}
	if v := c.Query("piggyback"); v != "" {
		piggyback := v == "true"
		filters.Piggyback = &piggyback
	}

	hosts, err := s.store.GetHosts(c.Request.Context(), filters)
	if err != nil {
		logrus.WithError(err).Error("Failed to get hosts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get hosts"})
		return
	}

	response := make([]HostResponse, 0, len(hosts))
	for i := range hosts {
		response = append(response, s.hostResponse(c.Request.Context(), &hosts[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  response,
		"count": len(response),
	})
}

func (s *Server) getHost(c *gin.Context) {
	host, ok := s.lookupHost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.hostResponse(c.Request.Context(), host)})
}

func (s *Server) hostResponse(ctx context.Context, host *database.Host) HostResponse {
	resp := HostResponse{Host: host, Status: "pending"}
	if _, ok := s.config.Host(host.ID); ok {
		resp.Configured = true
	}

	if services, err := s.store.GetServices(ctx, host.ID); err == nil {
		resp.ServiceCount = len(services)
	}

	statuses, err := s.store.GetStatus(ctx, database.StatusFilters{HostID: host.ID})
	if err != nil || len(statuses) == 0 {
		return resp
	}

	codes := make([]checkapi.State, 0, len(statuses))
	for _, status := range statuses {
		codes = append(codes, checkapi.State(status.ExitCode))
		if status.Timestamp.After(resp.LastCheck) {
			resp.LastCheck = status.Timestamp
		}
	}
	resp.Status = checkapi.Worst(codes...).Label()
	return resp
}

func (s *Server) getHostServices(c *gin.Context) {
	host, ok := s.lookupHost(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	services, err := s.store.GetServices(ctx, host.ID)
	if err != nil {
		logrus.WithError(err).WithField("host", host.ID).Error("Failed to get services")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get services"})
		return
	}

	statuses, err := s.store.GetStatus(ctx, database.StatusFilters{HostID: host.ID})
	if err != nil {
		logrus.WithError(err).WithField("host", host.ID).Error("Failed to get status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status"})
		return
	}
	byService := make(map[string]*database.Status, len(statuses))
	for i := range statuses {
		byService[statuses[i].ServiceID] = &statuses[i]
	}

	now := time.Now()
	response := make([]ServiceResponse, 0, len(services))
	for _, svc := range services {
		resp := ServiceResponse{Service: svc, State: "pending"}
		if status, ok := byService[svc.ID]; ok {
			resp.Status = status
			resp.State = checkapi.State(status.ExitCode).Label()
			resp.Perfometer = perfometerFor(status.Metrics)
		}
		if info, ok := s.engine.StateOf(host.ID, svc.ID); ok && !info.LastStateChange.IsZero() {
			resp.LastStateChange = info.LastStateChange
			resp.Since = formatDuration(now.Sub(info.LastStateChange))
		}
		response = append(response, resp)
	}
	sort.Slice(response, func(i, j int) bool {
		return response[i].Description < response[j].Description
	})

	c.JSON(http.StatusOK, gin.H{
		"data":  response,
		"count": len(response),
	})
}

// perfometerFor picks the first perfometer whose metrics are all present.
func perfometerFor(metrics []checkapi.Metric) *PerfometerValue {
	if len(metrics) == 0 {
		return nil
	}
	values := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		values[m.Name] = m.Value
	}
	p, ok := graphing.Select(values)
	if !ok {
		return nil
	}
	fill, ok := p.Fill(values)
	if !ok {
		return nil
	}
	return &PerfometerValue{Perfometer: p, Fill: fill}
}

func (s *Server) getHostInventory(c *gin.Context) {
	host, ok := s.lookupHost(c)
	if !ok {
		return
	}

	rec, err := s.store.GetInventory(c.Request.Context(), host.ID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No inventory for host"})
		return
	}
	if err != nil {
		logrus.WithError(err).WithField("host", host.ID).Error("Failed to get inventory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get inventory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  rec,
		"paths": rec.Tree.Paths(),
	})
}

// POST /api/hosts/:id/discover - rediscover services and inventory now
func (s *Server) discoverHost(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Monitoring.Timeout+10*time.Second)
	defer cancel()

	run, err := s.engine.Rediscover(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logrus.WithError(err).WithField("host", id).Error("Rediscovery failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

func (s *Server) getStatus(c *gin.Context) {
	filters := database.StatusFilters{
		HostID:    c.Query("host"),
		ServiceID: c.Query("service"),
	}

	if v := c.Query("state"); v != "" {
		code, ok := parseState(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state"})
			return
		}
		filters.ExitCode = &code
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filters.Limit = limit
	}
	if v := c.Query("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since duration"})
			return
		}
		since := time.Now().Add(-d)
		filters.Since = &since
	}

	statuses, err := s.store.GetStatus(c.Request.Context(), filters)
	if err != nil {
		logrus.WithError(err).Error("Failed to get status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  statuses,
		"count": len(statuses),
	})
}

// parseState accepts a state label or its numeric code.
func parseState(v string) (int, bool) {
	if code, err := strconv.Atoi(v); err == nil {
		return code, code >= 0 && code <= int(checkapi.Unknown)
	}
	for _, st := range []checkapi.State{checkapi.OK, checkapi.Warn, checkapi.Crit, checkapi.Unknown} {
		if st.Label() == v {
			return int(st), true
		}
	}
	return 0, false
}

func (s *Server) getPlugins(c *gin.Context) {
	checks := s.engine.Registry().Checks()
	response := make([]PluginResponse, 0, len(checks))
	for _, p := range checks {
		response = append(response, PluginResponse{
			Name:              p.Name,
			Section:           p.SectionName(),
			ServiceName:       p.ServiceName,
			DiscoveryRuleset:  p.DiscoveryRuleset,
			DiscoveryDefaults: p.DiscoveryDefaults,
			CheckRuleset:      p.CheckRuleset,
			CheckDefaults:     p.CheckDefaults,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": response, "count": len(response)})
}

// GET /api/graphing - display metadata of metrics, graphs and perfometers.
// With ?metric=a&metric=b only the graphs those metrics can draw are returned.
func (s *Server) getGraphing(c *gin.Context) {
	graphs := make(map[string]graphing.GraphInfo)
	if available := c.QueryArray("metric"); len(available) > 0 {
		graphs = graphing.Graphs(available)
	} else {
		for _, name := range graphing.GraphNames() {
			graphs[name], _ = graphing.Graph(name)
		}
	}

	translations := make(map[string]map[string]graphing.Translation)
	for _, p := range s.engine.Registry().Checks() {
		if tr := graphing.Translations(p.Name); len(tr) > 0 {
			translations[p.Name] = tr
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"metrics":      graphing.Metrics(),
			"graphs":       graphs,
			"perfometers":  graphing.Perfometers(),
			"translations": translations,
		},
	})
}

func (s *Server) lookupHost(c *gin.Context) (*database.Host, bool) {
	id := c.Param("id")
	host, err := s.store.GetHost(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Host not found"})
		return nil, false
	}
	if err != nil {
		logrus.WithError(err).WithField("host", id).Error("Failed to get host")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get host"})
		return nil, false
	}
	return host, true
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return strconv.Itoa(int(d.Seconds())) + "s"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + "h"
	default:
		return strconv.Itoa(int(d.Hours()/24)) + "d"
	}
}
