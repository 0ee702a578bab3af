// Package api serves DSO containers over HTTP: upload, inspect, patch
// global strings and download the re-encoded file.
package api

import (
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/dsotools/internal/logger"
	"github.com/samcharles93/dsotools/internal/patchset"
	"github.com/samcharles93/dsotools/pkg/dso"
)

// DefaultMaxBodyBytes caps uploads when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes int64 = 64 << 20

type Options struct {
	// MaxBodyBytes limits upload size. Negative disables the limit.
	MaxBodyBytes int64
	Logger       logger.Logger
}

type Server struct {
	store   *ContainerStore
	clock   func() time.Time
	maxBody int64
	log     logger.Logger
}

func NewServer(store *ContainerStore, opts Options) *Server {
	if store == nil {
		store = NewContainerStore()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody == 0 {
		maxBody = DefaultMaxBodyBytes
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		store:   store,
		clock:   time.Now,
		maxBody: maxBody,
		log:     log.With("component", "api"),
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/containers", s.handleUpload)
	e.GET("/v1/containers/:id", s.handleGet)
	e.DELETE("/v1/containers/:id", s.handleDelete)
	e.GET("/v1/containers/:id/strings", s.handleStrings)
	e.GET("/v1/containers/:id/operands", s.handleOperands)
	e.POST("/v1/containers/:id/patch", s.handlePatch)
	e.GET("/v1/containers/:id/raw", s.handleRaw)
}

func (s *Server) handleUpload(c *echo.Context) error {
	body, err := readBody(c.Request().Body, s.maxBody)
	if err != nil {
		return s.fail(c, err)
	}
	ctr, err := dso.Parse(body)
	if err != nil {
		return s.fail(c, err)
	}
	resp := s.store.Create(ctr, c.QueryParam("name"), s.clock())
	s.log.Info("container stored", "id", resp.ID, "bytes", len(body), "strings", resp.Summary.GlobalStrings)
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleGet(c *echo.Context) error {
	_, resp, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "container not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStrings(c *echo.Context) error {
	id := c.Param("id")
	ctr, _, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "container not found")
	}
	return c.JSON(http.StatusOK, StringsResponse{ID: id, Strings: ctr.GlobalStrings.Strings()})
}

func (s *Server) handleOperands(c *echo.Context) error {
	id := c.Param("id")
	ctr, _, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "container not found")
	}
	return c.JSON(http.StatusOK, OperandsResponse{ID: id, Operands: ctr.StringOperands()})
}

func (s *Server) handlePatch(c *echo.Context) error {
	id := c.Param("id")
	req, err := decodeJSON[PatchRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Patches == nil {
		return writeBadRequest(c, "patches is required")
	}
	patches, err := patchset.Indices(req.Patches)
	if err != nil {
		return s.fail(c, err)
	}
	res, summary, err := s.store.Patch(id, patches)
	if err != nil {
		return s.fail(c, err)
	}
	s.log.Info("container patched", "id", id, "strings", res.Strings, "operands", res.Operands, "references", res.References)
	return c.JSON(http.StatusOK, PatchResponse{
		ID:      id,
		Result:  PatchStats{Strings: res.Strings, Operands: res.Operands, References: res.References},
		Summary: summary,
	})
}

func (s *Server) handleRaw(c *echo.Context) error {
	ctr, resp, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "container not found")
	}
	data, err := ctr.Encode()
	if err != nil {
		return s.fail(c, err)
	}
	if resp.Name != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(resp.Name)}))
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, data)
}

func (s *Server) handleDelete(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "container not found")
	}
	s.log.Info("container deleted", "id", id)
	return c.JSON(http.StatusOK, DeleteResponse{
		ID:      id,
		Object:  containerObject,
		Deleted: true,
	})
}

func (s *Server) fail(c *echo.Context, err error) error {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request().URL.Path, "err", err)
	} else {
		s.log.Debug("request rejected", "path", c.Request().URL.Path, "status", status, "err", err)
	}
	return writeFailure(c, err)
}
