// Package web serves the server-rendered pages: the public links page and
// the admin page with the create form and per-link delete controls. Pages are
// assembled from the component registry; the delete buttons carry the same
// form action and method the JSON API emits, so every client deletes through
// the identical wire contract.
package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	linkapp "github.com/linkdeck/linkdeck/internal/application/links"
	"github.com/linkdeck/linkdeck/internal/interfaces/web/components"
	"go.uber.org/zap"
)

// cardData is the view model rendered into a link-card component.
type cardData struct {
	Key          string
	URL          string
	Title        string
	Description  string
	ShowControls bool
	DeleteForm   linkapp.FormDescriptor
}

// layoutData is the view model for the page layout.
type layoutData struct {
	Title string
	Body  template.HTML
}

// Pages renders the HTML pages from the component registry.
type Pages struct {
	registry    *components.Registry
	linkService *linkapp.LinkService
	logger      *zap.Logger
}

// NewPages creates the page handler and installs the default components.
func NewPages(registry *components.Registry, linkService *linkapp.LinkService, logger *zap.Logger) (*Pages, error) {
	if err := components.RegisterDefaults(registry); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pages{
		registry:    registry,
		linkService: linkService,
		logger:      logger,
	}, nil
}

// Home renders the public links page: cards only, no controls.
func (p *Pages) Home(c *gin.Context) {
	p.renderListPage(c, "Links", false)
}

// Admin renders the admin page: the create form plus cards with delete
// buttons.
func (p *Pages) Admin(c *gin.Context) {
	p.renderListPage(c, "Links admin", true)
}

func (p *Pages) renderListPage(c *gin.Context, title string, withControls bool) {
	links, err := p.linkService.List(c.Request.Context())
	if err != nil {
		p.logger.Error("page render failed", zap.String("page", title), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	var body bytes.Buffer
	if withControls {
		if err := p.registry.Render(&body, components.ComponentLinkForm, nil); err != nil {
			p.fail(c, err)
			return
		}
	}
	for _, link := range links {
		card := cardData{
			Key:          link.Key,
			URL:          link.URL,
			Title:        link.Title,
			Description:  link.Description,
			ShowControls: withControls,
			DeleteForm:   link.DeleteForm,
		}
		if err := p.registry.Render(&body, components.ComponentLinkCard, card); err != nil {
			p.fail(c, err)
			return
		}
	}

	var page bytes.Buffer
	err = p.registry.Render(&page, components.ComponentLayout, layoutData{
		Title: title,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		p.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

func (p *Pages) fail(c *gin.Context, err error) {
	p.logger.Error("component render failed", zap.Error(err))
	c.String(http.StatusInternalServerError, "internal error")
}
