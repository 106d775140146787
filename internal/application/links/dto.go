package links

import (
	"fmt"
	"net/http"
	"time"

	"github.com/linkdeck/linkdeck/internal/domain/links"
)

// CreateLinkRequest represents a request to create a new link.
// Key and Title are optional: a missing key is derived from the title and a
// missing title can be fetched from the target page when title fetching is
// enabled.
type CreateLinkRequest struct {
	Key         string `json:"key" form:"key" binding:"omitempty,linkkey"`
	URL         string `json:"url" form:"url" binding:"required,url,max=2048"`
	Title       string `json:"title" form:"title" binding:"omitempty,max=140"`
	Description string `json:"description" form:"description" binding:"omitempty,max=500"`
}

// UpdateLinkRequest represents a partial update of a link
type UpdateLinkRequest struct {
	URL         *string `json:"url" form:"url" binding:"omitempty,url,max=2048"`
	Title       *string `json:"title" form:"title" binding:"omitempty,min=1,max=140"`
	Description *string `json:"description" form:"description" binding:"omitempty,max=500"`
}

// FormDescriptor carries the endpoint and verb of a submission-capable
// control. Clients use both values verbatim.
type FormDescriptor struct {
	Action string `json:"action"`
	Method string `json:"method"`
}

// LinkResponse represents a link in API responses
type LinkResponse struct {
	Key         string         `json:"key"`
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeleteForm  FormDescriptor `json:"delete_form"`
}

// DeleteFormFor returns the form descriptor for deleting the given link key.
// The pages render the same action and method into their delete forms.
func DeleteFormFor(key string) FormDescriptor {
	return FormDescriptor{
		Action: fmt.Sprintf("/links/%s/delete", key),
		Method: http.MethodPost,
	}
}

func toLinkResponse(link *links.Link) *LinkResponse {
	return &LinkResponse{
		Key:         link.Key,
		URL:         link.URL,
		Title:       link.Title,
		Description: link.Description,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
		DeleteForm:  DeleteFormFor(link.Key),
	}
}
