package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	linkapp "github.com/linkdeck/linkdeck/internal/application/links"
)

// LinkHandler handles link management HTTP requests. The same methods back
// the JSON API under /api/v1 and the form posts issued by the server-rendered
// pages: requests are bound by content type, and HTML clients are redirected
// back to the admin page after mutations.
type LinkHandler struct {
	BaseHandler
	linkService *linkapp.LinkService
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkService *linkapp.LinkService) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
	}
}

// ListLinksResponse wraps the collection with its size for list endpoints
type ListLinksResponse struct {
	Links []*linkapp.LinkResponse `json:"links"`
	Count int                     `json:"count"`
}

// wantsHTML reports whether the client prefers an HTML response. Browser form
// posts advertise text/html; API clients ask for application/json.
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// List godoc
// @Summary      List links
// @Description  Retrieve all links in creation order
// @Tags         links
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=ListLinksResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /links [get]
func (h *LinkHandler) List(c *gin.Context) {
	result, err := h.linkService.List(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ListLinksResponse{
		Links: result,
		Count: len(result),
	})
}

// Get godoc
// @Summary      Get link by key
// @Description  Retrieve a single link by its key
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        key path string true "Link key"
// @Success      200 {object} dto.Response{data=links.LinkResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /links/{key} [get]
func (h *LinkHandler) Get(c *gin.Context) {
	link, err := h.linkService.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, link)
}

// Create godoc
// @Summary      Create link
// @Description  Create a new link; the key is derived from the title when omitted
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        request body links.CreateLinkRequest true "Link to create"
// @Success      201 {object} dto.Response{data=links.LinkResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /links [post]
func (h *LinkHandler) Create(c *gin.Context) {
	var req linkapp.CreateLinkRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	link, err := h.linkService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}

	h.Created(c, link)
}

// Update godoc
// @Summary      Update link
// @Description  Partially update a link's URL, title, or description
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        key path string true "Link key"
// @Param        request body links.UpdateLinkRequest true "Fields to update"
// @Success      200 {object} dto.Response{data=links.LinkResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /links/{key} [put]
func (h *LinkHandler) Update(c *gin.Context) {
	var req linkapp.UpdateLinkRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	link, err := h.linkService.Update(c.Request.Context(), c.Param("key"), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}

	h.Success(c, link)
}

// Delete godoc
// @Summary      Delete link
// @Description  Permanently delete a link by its key
// @Tags         links
// @Accept       json
// @Produce      json
// @Param        key path string true "Link key"
// @Success      204 "No Content"
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /links/{key} [delete]
func (h *LinkHandler) Delete(c *gin.Context) {
	if err := h.linkService.Delete(c.Request.Context(), c.Param("key")); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// DeleteForm handles the form-post delete route that the page delete buttons
// and the terminal client submit to. Responses carry a body so that form
// clients always receive a readable result.
func (h *LinkHandler) DeleteForm(c *gin.Context) {
	key := c.Param("key")
	if err := h.linkService.Delete(c.Request.Context(), key); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}

	h.Success(c, gin.H{"key": key})
}
