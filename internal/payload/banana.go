package payload

// BananaBuilder builds banana/nano image requests. Unlike the flexible-image
// family it honors an explicit style image index, inserting the style image
// at that position and renumbering the remaining images around it.
type BananaBuilder struct{}

func (BananaBuilder) Build(ctx GenerationContext) Payload {
	l := buildLayout(ctx, true)

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
	}
}
