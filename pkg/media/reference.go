package media

import (
	"fmt"
	"strings"
)

// Category is the logical folder an uploaded asset belongs to.
type Category string

const (
	CategoryProfilePhoto Category = "profile_photos"
	CategoryCollegeLogo  Category = "college_logos"
	CategoryClubLogo     Category = "club_logos"
	CategoryEventBanner  Category = "event_logos"
	CategorySiteAsset    Category = "site_assets"
)

// KnownCategories returns the categories with well-known defaults.
func KnownCategories() []Category {
	return []Category{
		CategoryProfilePhoto,
		CategoryCollegeLogo,
		CategoryClubLogo,
		CategoryEventBanner,
		CategorySiteAsset,
	}
}

// Reference is the canonical, backend-independent pointer to an
// uploaded asset. Stored is the backend-opaque identifier: a full URL
// for remote objects, a relative path for local files, empty when no
// upload exists.
type Reference struct {
	Category Category `json:"category"`
	Stored   string   `json:"stored,omitempty"`
}

// IsZero reports whether no upload backs this reference.
func (r Reference) IsZero() bool {
	return r.Stored == ""
}

// DefaultReference returns the category's default reference, used when
// no upload is present or when resolution fails.
func DefaultReference(category Category) Reference {
	return Reference{Category: category}
}

// DefaultPath synthesizes the conventional default asset path for a
// category: /images/<category>/default-<singular>.jpg. Unrecognized
// categories get the same convention; a broken image is preferred over
// a hard error.
func DefaultPath(category Category) string {
	return fmt.Sprintf("/images/%s/default-%s.jpg", category, singular(category))
}

func singular(category Category) string {
	s := string(category)
	if strings.HasSuffix(s, "s") {
		return s[:len(s)-1]
	}
	return s
}
