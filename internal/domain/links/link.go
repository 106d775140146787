package links

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/linkdeck/linkdeck/internal/domain/shared"
)

// Length limits for link fields.
const (
	MaxKeyLength         = 64
	MaxTitleLength       = 140
	MaxDescriptionLength = 500
	MaxURLLength         = 2048
)

// keyPattern matches valid link keys: lowercase slugs starting with an
// alphanumeric character.
var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// Link is a single entry on the links page. The key is the public identifier
// and is immutable after creation.
type Link struct {
	Key         string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	URL         string    `gorm:"type:varchar(2048);not null" json:"url"`
	Title       string    `gorm:"type:varchar(140);not null" json:"title"`
	Description string    `gorm:"type:varchar(500)" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for GORM
func (Link) TableName() string {
	return "links"
}

// NewLink creates a validated link
func NewLink(key, rawURL, title, description string) (*Link, error) {
	key = strings.TrimSpace(key)
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if err := validateKey(key); err != nil {
		return nil, err
	}
	normalized, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Link{
		Key:         key,
		URL:         normalized,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update replaces the mutable fields of the link. The key never changes.
func (l *Link) Update(rawURL, title, description string) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	normalized, err := validateURL(rawURL)
	if err != nil {
		return err
	}
	if err := validateTitle(title); err != nil {
		return err
	}
	if err := validateDescription(description); err != nil {
		return err
	}

	l.URL = normalized
	l.Title = title
	l.Description = description
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// IsValidKey reports whether key is an acceptable link key.
func IsValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

func validateKey(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_INPUT", "Link key is required")
	}
	if !IsValidKey(key) {
		return shared.NewDomainError("INVALID_INPUT",
			"Link key must be a lowercase slug (letters, digits, hyphens) of at most 64 characters")
	}
	return nil
}

// validateURL checks the target URL and returns its normalized form.
func validateURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", shared.NewDomainError("INVALID_INPUT", "Link URL is required")
	}
	if len(rawURL) > MaxURLLength {
		return "", shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Link URL cannot exceed %d characters", MaxURLLength))
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", shared.NewDomainError("INVALID_INPUT", "Link URL is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", shared.NewDomainError("INVALID_INPUT", "Link URL must use http or https")
	}
	if u.Host == "" {
		return "", shared.NewDomainError("INVALID_INPUT", "Link URL must include a host")
	}
	return u.String(), nil
}

func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_INPUT", "Link title is required")
	}
	if len(title) > MaxTitleLength {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Link title cannot exceed %d characters", MaxTitleLength))
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Link description cannot exceed %d characters", MaxDescriptionLength))
	}
	return nil
}
