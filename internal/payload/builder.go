package payload

import "strings"

// Family identifies a provider model family with its own payload shape.
type Family int

const (
	// FamilyFlexImage is the default image family.
	FamilyFlexImage Family = iota
	// FamilyVideo covers the start-to-end video models.
	FamilyVideo
	// FamilyBanana covers the banana/nano image models with movable style
	// image placement.
	FamilyBanana
)

// Builder turns a resolved context into a provider payload. Implementations
// are stateless and must not fail on missing optional fields.
type Builder interface {
	Build(ctx GenerationContext) Payload
}

// FamilyForModel classifies a model identifier. Unknown identifiers fall
// back to the flexible-image family rather than failing.
func FamilyForModel(model string) Family {
	id := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.Contains(id, "banana"), strings.Contains(id, "nano"):
		return FamilyBanana
	case strings.Contains(id, "video"),
		strings.Contains(id, "i2v"),
		strings.Contains(id, "t2v"),
		strings.HasPrefix(id, "kling"),
		strings.HasPrefix(id, "veo"),
		strings.HasPrefix(id, "seedance"),
		strings.HasPrefix(id, "wan"):
		return FamilyVideo
	default:
		return FamilyFlexImage
	}
}

// ForModel returns the builder for a model identifier's family.
func ForModel(model string) Builder {
	switch FamilyForModel(model) {
	case FamilyVideo:
		return VideoBuilder{}
	case FamilyBanana:
		return BananaBuilder{}
	default:
		return FlexImageBuilder{}
	}
}
