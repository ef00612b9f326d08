package domain

// Placeholders used when a record has no uploaded image
const (
	DefaultPropertyImage = "/static/images/default-house.png"
	DefaultAvatar        = "/static/images/avatar.svg"
)

// ImageRef is a resolved image reference. Placeholder is true when the record
// has no image of its own and URL points at a default asset.
type ImageRef struct {
	URL         string `json:"url"`
	Placeholder bool   `json:"placeholder"`
}

func imageOrPlaceholder(ref *string, placeholder string) ImageRef {
	if ref == nil || *ref == "" {
		return ImageRef{URL: placeholder, Placeholder: true}
	}
	return ImageRef{URL: *ref}
}
