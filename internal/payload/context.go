package payload

// GenerationContext is the resolved bundle handed to a builder. It is
// ephemeral and never persisted.
//
// CharacterImages holds one URL group per character, in the order the names
// appear on the clip; LocationImages likewise follows resolution order.
type GenerationContext struct {
	CharacterImages [][]string
	LocationImages  []string
	// ContentImages are the user's explicit reference URLs, in input order.
	ContentImages []string
	// StyleImage is the optional single style reference.
	StyleImage string
	StyleName  string
	// StyleStrength is the 0-10 user slider; 0 means unset.
	StyleStrength int
	// StyleImageIndex is a zero-based insertion position for the style image
	// within the numbered sequence. nil appends it last.
	StyleImageIndex *int

	Model          string
	Action         string
	Dialog         string
	Camera         string
	NegativePrompt string
}

// HasImages reports whether any reference image is available.
func (c GenerationContext) HasImages() bool {
	for _, group := range c.CharacterImages {
		if len(group) > 0 {
			return true
		}
	}
	return len(c.LocationImages) > 0 || len(c.ContentImages) > 0 || c.StyleImage != ""
}
