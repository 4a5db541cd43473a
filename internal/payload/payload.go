// Package payload turns resolved generation contexts into provider request
// bodies, one builder per model family.
//
// Builders are stateless and deterministic; missing optional fields degrade
// to the text-only prompt variant instead of failing.
package payload

// Generation types understood by the provider.
const (
	TypeTextToVideo      = "TEXT_2_VIDEO"
	TypeReferenceToVideo = "REFERENCE_2_VIDEO"
	TypeImageToVideo     = "IMAGE_TO_VIDEO"
	TypeTextToImage      = "TEXT_TO_IMAGE"
	TypeImageToImage     = "IMAGE_TO_IMAGE"
)

// Payload is the provider-facing request body.
type Payload struct {
	Model          string   `json:"model"`
	GenerationType string   `json:"generationType"`
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negativePrompt,omitempty"`
	ImageURLs      []string `json:"imageUrls,omitempty"`
	// Guidance is the provider guidance scalar derived from style strength.
	// Zero means the builder left it at the provider default.
	Guidance float64 `json:"guidance,omitempty"`
}

// GuidanceForStrength maps the 0-10 style-strength slider onto the provider
// guidance scalar. The mapping is linear and anchored so strength 1 yields
// 1.5 and strength 5 yields 5.5. Strength 0 (unset) yields 0, which leaves
// the provider default in force.
func GuidanceForStrength(strength int) float64 {
	if strength <= 0 {
		return 0
	}
	return 1.5 + float64(strength-1)*1.0
}
