package payload

// VideoBuilder builds start-to-end video requests. The generation type is a
// three-way branch on the explicit image count: two images are start and end
// frames, one image conditions a reference video, none is pure text-to-video.
type VideoBuilder struct{}

func (VideoBuilder) Build(ctx GenerationContext) Payload {
	images := ctx.ContentImages
	if len(images) > 2 {
		images = images[:2]
	}

	var generationType string
	switch len(images) {
	case 2:
		generationType = TypeImageToVideo
	case 1:
		generationType = TypeReferenceToVideo
	default:
		generationType = TypeTextToVideo
	}

	// Video models take the frames directly; the prompt carries no
	// positional image references.
	promptCtx := ctx
	promptCtx.CharacterImages = nil
	promptCtx.LocationImages = nil
	promptCtx.ContentImages = nil
	promptCtx.StyleImage = ""

	return Payload{
		Model:          ctx.Model,
		GenerationType: generationType,
		Prompt:         assemblePrompt(promptCtx, layout{}),
		NegativePrompt: ctx.NegativePrompt,
		ImageURLs:      images,
	}
}
