package payload

// FlexImageBuilder builds flexible-image requests: image-to-image whenever
// any reference image is present, text-to-image otherwise. The style image
// is always appended last; style strength maps onto the guidance scalar.
type FlexImageBuilder struct{}

func (FlexImageBuilder) Build(ctx GenerationContext) Payload {
	l := buildLayout(ctx, false)

	generationType := TypeTextToImage
	if len(l.ordered) > 0 {
		generationType = TypeImageToImage
	}

	return Payload{
		Model:          ctx.Model,
		GenerationType: generationType,
		Prompt:         assemblePrompt(ctx, l),
		NegativePrompt: ctx.NegativePrompt,
		ImageURLs:      l.ordered,
		Guidance:       GuidanceForStrength(ctx.StyleStrength),
	}
}
