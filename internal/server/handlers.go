package server

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"logpanel/internal/apperr"
	"logpanel/internal/auth"
	"logpanel/internal/demo"
	"logpanel/internal/export"
	"logpanel/internal/filter"
	"logpanel/internal/ingest"
	"logpanel/internal/menu"
	"logpanel/internal/model"
	"logpanel/internal/panel"
)

func queryFromRequest(c *gin.Context) filter.Query {
	return filter.Query{
		Levels:     c.Query("level"),
		Categories: c.Query("category"),
		Sources:    c.Query("source"),
		Keyword:    c.Query("keyword"),
		Start:      c.Query("start"),
		End:        c.Query("end"),
		Preset:     c.Query("preset"),
	}
}

func badRequest(err error) *apperr.AppError {
	return apperr.BadRequest(err.Error(), err)
}

func (s *Server) listLogs(c *gin.Context) {
	engine, err := queryFromRequest(c).Build(filter.WithClock(s.opts.Now))
	if err != nil {
		respondError(c, badRequest(err))
		return
	}

	all := s.logs.Logs()
	visible := engine.Apply(all)
	if latest := c.Query("latest"); latest != "" {
		n, err := strconv.Atoi(latest)
		if err != nil || n < 0 {
			respondError(c, apperr.BadRequest("latest must be a non-negative integer", err))
			return
		}
		if n < len(visible) {
			visible = visible[len(visible)-n:]
		}
	}
	c.JSON(http.StatusOK, gin.H{"logs": visible, "count": len(visible), "total": len(all)})
}

// createLogs accepts one record or an array of records. A single record is
// answered with the created entry.
func (s *Server) createLogs(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)
	data, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, apperr.New(http.StatusRequestEntityTooLarge, "request body too large", err))
			return
		}
		respondError(c, apperr.BadRequest("read body", err))
		return
	}
	res, err := ingest.Decode(data)
	if err != nil {
		respondError(c, badRequest(err))
		return
	}
	warnings := make([]string, len(res.Warnings))
	for i, w := range res.Warnings {
		warnings[i] = w.Error()
	}
	if len(res.Entries) == 0 {
		msg := "no log records"
		if len(warnings) > 0 {
			msg = warnings[0]
		}
		respondError(c, apperr.BadRequest(msg, nil))
		return
	}

	created := make([]model.LogEntry, 0, len(res.Entries))
	for _, e := range res.Entries {
		entry := s.logs.AddLog(e.Level, e.Message, &model.CreateOptions{
			Category: e.Category,
			Source:   e.Source,
			Details:  e.Details,
			Stack:    e.Stack,
		})
		s.metrics.LogsAdded.WithLabelValues(string(entry.Level)).Inc()
		created = append(created, entry)
	}

	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		c.JSON(http.StatusCreated, created[0])
		return
	}
	c.JSON(http.StatusCreated, gin.H{"logs": created, "count": len(created), "warnings": warnings})
}

func (s *Server) clearLogs(c *gin.Context) {
	s.logs.ClearLogs()
	c.Status(http.StatusNoContent)
}

func (s *Server) removeLog(c *gin.Context) {
	id := c.Param("id")
	exists := slices.ContainsFunc(s.logs.Logs(), func(e model.LogEntry) bool { return e.ID == id })
	if !exists {
		respondError(c, apperr.NotFound("log not found"))
		return
	}
	s.logs.RemoveLog(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) logStats(c *gin.Context) {
	stats := s.logs.LogStats()
	c.JSON(http.StatusOK, gin.H{
		"debug": stats.Debug,
		"info":  stats.Info,
		"warn":  stats.Warn,
		"error": stats.Error,
		"total": stats.Total(),
	})
}

func (s *Server) logOptions(c *gin.Context) {
	engine := filter.New()
	engine.UpdateAvailableOptions(s.logs.Logs())
	c.JSON(http.StatusOK, gin.H{
		"levels":     model.Levels,
		"categories": nonNil(engine.AvailableCategories()),
		"sources":    nonNil(engine.AvailableSources()),
		"presets":    filter.PresetNames(),
	})
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (s *Server) exportLogs(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatJSON)))
	if err != nil {
		respondError(c, badRequest(err))
		return
	}
	levels, err := model.ParseLevelList(c.Query("levels"))
	if err != nil {
		respondError(c, badRequest(err))
		return
	}
	start, err := filter.ParseTime(c.Query("start"))
	if err != nil {
		respondError(c, badRequest(err))
		return
	}
	end, err := filter.ParseTime(c.Query("end"))
	if err != nil {
		respondError(c, badRequest(err))
		return
	}

	opts := export.Options{
		Format:         format,
		IncludeDetails: c.Query("includeDetails") == "true",
		Levels:         levels,
		Location:       s.opts.Location,
	}
	if start != nil || end != nil {
		r := &export.DateRange{Start: math.MinInt64, End: math.MaxInt64}
		if start != nil {
			r.Start = *start
		}
		if end != nil {
			r.End = *end
		}
		opts.DateRange = r
	}

	var content string
	if c.Query("filtered") == "true" {
		content, err = export.Logs(s.ctrl.FilteredLogs(), opts)
	} else {
		content, err = s.logs.Export(opts)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	a := export.NewArtifact(s.opts.ExportBase, format, content, s.opts.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.Filename))
	c.Data(http.StatusOK, a.MIMEType, []byte(a.Content))
}

type panelRequest struct {
	Action   string             `json:"action"`
	Config   *panel.ConfigPatch `json:"config"`
	Selected *string            `json:"selected"`
}

func (s *Server) panelState(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.State())
}

func (s *Server) updatePanel(c *gin.Context) {
	var req panelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("invalid request body", err))
		return
	}

	switch req.Action {
	case "":
	case "toggle":
		s.ctrl.Toggle()
	case "open":
		s.ctrl.Open()
	case "close":
		s.ctrl.Close()
	default:
		respondError(c, apperr.BadRequest("unknown action: "+req.Action, nil))
		return
	}
	if req.Config != nil {
		if err := s.ctrl.UpdateConfig(*req.Config); err != nil {
			respondError(c, badRequest(err))
			return
		}
	}
	if req.Selected != nil {
		s.ctrl.Select(*req.Selected)
	}
	c.JSON(http.StatusOK, s.ctrl.State())
}

func (s *Server) menu(c *gin.Context) {
	routes := s.opts.Routes
	if routes == nil {
		routes = menu.DefaultRoutes()
	}
	items := menu.BuildMenu(routes)
	if kw := c.Query("search"); kw != "" {
		items = menu.Search(items, kw)
	}
	if c.Query("category") == "true" {
		c.JSON(http.StatusOK, gin.H{"groups": menu.GroupByCategory(items)})
		return
	}
	if items == nil {
		items = []menu.Item{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) dashboardView(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Dashboard.View())
}

func (s *Server) refreshDashboard(c *gin.Context) {
	s.opts.Dashboard.Refresh()
	if err := s.opts.Dashboard.Save(c.Request.Context()); err != nil {
		s.log.Warn("save dashboard", "error", err)
	}
	c.JSON(http.StatusOK, s.opts.Dashboard.View())
}

func (s *Server) demoState(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Demo.State())
}

func (s *Server) switchDemoMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("invalid request body", err))
		return
	}
	mode, err := demo.ParseMode(req.Mode)
	if err != nil {
		respondError(c, badRequest(err))
		return
	}
	if err := s.opts.Demo.SwitchMode(mode); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.opts.Demo.State())
}

func (s *Server) generateSample(c *gin.Context) {
	if !s.opts.Demo.GenerateSampleLogs(c.Param("id")) {
		respondError(c, apperr.NotFound("sample not found"))
		return
	}
	c.JSON(http.StatusOK, s.opts.Demo.State())
}

func (s *Server) login(c *gin.Context) {
	var form auth.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, apperr.BadRequest("invalid request body", err))
		return
	}
	resp := s.opts.Auth.Login(c.Request.Context(), form)
	if !resp.Success {
		c.JSON(http.StatusUnauthorized, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.opts.Auth.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

