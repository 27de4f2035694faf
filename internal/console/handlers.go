package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/threedollars/admin-console/pkg/admin"
	"github.com/threedollars/admin-console/pkg/logging"
	"github.com/threedollars/admin-console/pkg/pagination"
)

type createSessionRequest struct {
	Token string `json:"token" binding:"required"`
}

type mountRequest struct {
	Resource string                     `json:"resource" binding:"required"`
	Filter   map[string]json.RawMessage `json:"filter"`
	Size     int                        `json:"size"`
}

type filterRequest struct {
	Filter map[string]json.RawMessage `json:"filter"`
}

type evictRequest struct {
	Resource string `json:"resource"`
}

type viewResponse struct {
	View     Info                              `json:"view"`
	Snapshot pagination.Snapshot[admin.Record] `json:"snapshot"`
}

type scrollResponse struct {
	Decision pagination.Decision               `json:"decision"`
	Snapshot pagination.Snapshot[admin.Record] `json:"snapshot"`
}

type loadMoreResponse struct {
	Fired    bool                              `json:"fired"`
	Snapshot pagination.Snapshot[admin.Record] `json:"snapshot"`
}

type deleteItemResponse struct {
	Removed  bool                              `json:"removed"`
	Snapshot pagination.Snapshot[admin.Record] `json:"snapshot"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readiness(c *gin.Context) {
	if s.ready != nil {
		if err := s.ready(c.Request.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "token is required", "")
		return
	}

	sess, err := s.sessions.Create(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.Public())
}

func (s *Server) deleteSession(c *gin.Context) {
	sess := currentSession(c)
	closed := s.views.RemoveOwner(sess.ID)

	if err := s.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"closedViews": closed})
}

func (s *Server) listResources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"resources": admin.Resources()})
}

func (s *Server) mountView(c *gin.Context) {
	var req mountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "resource is required", "")
		return
	}
	resource, err := admin.Lookup(req.Resource)
	if err != nil {
		abortJSON(c, http.StatusBadRequest, fmt.Sprintf("unknown resource %q", req.Resource), "")
		return
	}
	filter, err := filterValues(req.Filter)
	if err != nil {
		abortJSON(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	size := req.Size
	if size <= 0 {
		size = s.cfg.PageSize
	}

	sess := currentSession(c)
	view := s.views.NewView(sess.ID, resource)
	view.Service = admin.NewService(s.backend.WithTokens(s.sessions.TokenSource(sess.ID)))

	logger := logging.ForView(s.logger, view.ID, resource.Name)
	view.List = pagination.NewList[admin.Record](view.Service.Records(resource), pagination.ListConfig{
		Name:     resource.Name,
		PageSize: size,
		Logger:   &logger,
	})
	ctrlCfg := s.cfg.Controller
	ctrlCfg.Logger = &logger
	view.Controller = pagination.NewController(view.List, ctrlCfg)
	s.views.Add(view)

	// a failed first page is reported in the snapshot notice
	s.refresh(c.Request.Context(), view, filter)

	c.JSON(http.StatusCreated, viewResponse{View: view.Info(), Snapshot: view.List.Snapshot()})
}

func (s *Server) getView(c *gin.Context) {
	view, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewResponse{View: view.Info(), Snapshot: view.List.Snapshot()})
}

func (s *Server) changeFilter(c *gin.Context) {
	view, ok := s.view(c)
	if !ok {
		return
	}
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, http.StatusBadRequest, "invalid filter", "")
		return
	}
	filter, err := filterValues(req.Filter)
	if err != nil {
		abortJSON(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := s.refresh(c.Request.Context(), view, filter); errors.Is(err, pagination.ErrClosed) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResponse{View: view.Info(), Snapshot: view.List.Snapshot()})
}

func (s *Server) scroll(c *gin.Context) {
	view, ok := s.view(c)
	if !ok {
		return
	}
	var viewport pagination.Viewport
	if err := c.ShouldBindJSON(&viewport); err != nil {
		abortJSON(c, http.StatusBadRequest, "invalid viewport", "")
		return
	}

	decision, err := view.Controller.Observe(c.Request.Context(), viewport)
	if errors.Is(err, pagination.ErrClosed) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, scrollResponse{Decision: decision, Snapshot: view.List.Snapshot()})
}

func (s *Server) loadMore(c *gin.Context) {
	view, ok := s.view(c)
	if !ok {
		return
	}

	fired, err := view.Controller.Retry(c.Request.Context())
	if errors.Is(err, pagination.ErrClosed) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loadMoreResponse{Fired: fired, Snapshot: view.List.Snapshot()})
}

func (s *Server) deleteItem(c *gin.Context) {
	view, ok := s.view(c)
	if !ok {
		return
	}
	itemID := c.Param("itemId")

	if err := view.Service.Delete(c.Request.Context(), view.Resource, itemID); err != nil {
		writeError(c, err)
		return
	}
	removed := view.List.Remove(itemID)
	c.JSON(http.StatusOK, deleteItemResponse{Removed: removed, Snapshot: view.List.Snapshot()})
}

func (s *Server) unmountView(c *gin.Context) {
	if err := s.views.Remove(currentSession(c).ID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) evictCache(c *gin.Context) {
	var req evictRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortJSON(c, http.StatusBadRequest, "invalid body", "")
			return
		}
	}
	if s.cache == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false, "evicted": 0})
		return
	}

	endpoint := ""
	if req.Resource != "" {
		resource, err := admin.Lookup(req.Resource)
		if err != nil {
			abortJSON(c, http.StatusBadRequest, fmt.Sprintf("unknown resource %q", req.Resource), "")
			return
		}
		endpoint = resource.Path
	}

	evicted, err := s.cache.Evict(c.Request.Context(), endpoint)
	if err != nil {
		s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Cache eviction failed")
		abortJSON(c, http.StatusServiceUnavailable, "cache unavailable", "")
		return
	}
	s.logger.Info().Str("endpoint", endpoint).Int("evicted", evicted).Msg("Cache evicted")
	c.JSON(http.StatusOK, gin.H{"enabled": true, "evicted": evicted})
}

// view resolves the :id view of the current session or writes a 404.
func (s *Server) view(c *gin.Context) (*View, bool) {
	view, err := s.views.Get(currentSession(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return view, true
}

// refresh resets view for filter and loads its first page.
func (s *Server) refresh(ctx context.Context, view *View, filter url.Values) error {
	view.Controller.Reset()
	err := view.List.Refresh(ctx, filter)
	if err != nil && !errors.Is(err, pagination.ErrStale) {
		s.logger.Debug().Err(err).Str("view_id", view.ID).Msg("Refresh finished with an error")
	}
	return err
}

// filterValues converts a JSON filter object into query parameters.
// Values may be strings, numbers, booleans or arrays of those.
func filterValues(raw map[string]json.RawMessage) (url.Values, error) {
	values := url.Values{}
	for key, msg := range raw {
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("filter %q: %w", key, err)
		}
		switch val := v.(type) {
		case nil:
		case []any:
			for _, elem := range val {
				s, err := scalar(elem)
				if err != nil {
					return nil, fmt.Errorf("filter %q: %w", key, err)
				}
				values.Add(key, s)
			}
		default:
			s, err := scalar(val)
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", key, err)
			}
			values.Set(key, s)
		}
	}
	return values, nil
}

func scalar(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported value %v", v)
	}
}
