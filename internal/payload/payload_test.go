package payload_test

import (
	"reflect"
	"strings"
	"testing"

	"callboard/internal/payload"
)

func TestGuidanceAnchors(t *testing.T) {
	if got := payload.GuidanceForStrength(1); got != 1.5 {
		t.Fatalf("strength 1 guidance = %v, want 1.5", got)
	}
	five := payload.GuidanceForStrength(5)
	if five <= 5 || five >= 6 {
		t.Fatalf("strength 5 guidance = %v, want within (5, 6)", five)
	}
	if payload.GuidanceForStrength(0) != 0 {
		t.Fatal("unset strength must leave guidance at provider default")
	}
	prev := 0.0
	for strength := 1; strength <= 10; strength++ {
		got := payload.GuidanceForStrength(strength)
		if got <= prev {
			t.Fatalf("guidance not monotonic at strength %d: %v <= %v", strength, got, prev)
		}
		prev = got
	}
}

func TestFamilyForModel(t *testing.T) {
	cases := []struct {
		model string
		want  payload.Family
	}{
		{"kling-2-1-start-end", payload.FamilyVideo},
		{"seedance-pro", payload.FamilyVideo},
		{"wan-i2v", payload.FamilyVideo},
		{"flex-image-2", payload.FamilyFlexImage},
		{"nano-banana-pro", payload.FamilyBanana},
		{"", payload.FamilyFlexImage},
		{"some-unreleased-model", payload.FamilyFlexImage},
	}
	for _, tc := range cases {
		if got := payload.FamilyForModel(tc.model); got != tc.want {
			t.Fatalf("FamilyForModel(%q) = %v, want %v", tc.model, got, tc.want)
		}
	}
}

func TestVideoBuilderSelectsTypeByImageCount(t *testing.T) {
	cases := []struct {
		images []string
		want   string
	}{
		{nil, payload.TypeTextToVideo},
		{[]string{"http://a.jpg"}, payload.TypeReferenceToVideo},
		{[]string{"http://a.jpg", "http://b.jpg"}, payload.TypeImageToVideo},
		{[]string{"http://a.jpg", "http://b.jpg", "http://c.jpg"}, payload.TypeImageToVideo},
	}
	for _, tc := range cases {
		got := payload.VideoBuilder{}.Build(payload.GenerationContext{
			Model:         "kling-2-1-start-end",
			Action:        "Hero walks away",
			ContentImages: tc.images,
		})
		if got.GenerationType != tc.want {
			t.Fatalf("%d images -> %s, want %s", len(tc.images), got.GenerationType, tc.want)
		}
		if len(got.ImageURLs) > 2 {
			t.Fatalf("video payload carries %d images, want at most 2", len(got.ImageURLs))
		}
	}
}

func TestVideoBuilderPreservesFrameOrder(t *testing.T) {
	got := payload.VideoBuilder{}.Build(payload.GenerationContext{
		ContentImages: []string{"http://start.jpg", "http://end.jpg"},
	})
	if !reflect.DeepEqual(got.ImageURLs, []string{"http://start.jpg", "http://end.jpg"}) {
		t.Fatalf("frame order changed: %v", got.ImageURLs)
	}
}

func TestFlexImageTypeDependsOnImages(t *testing.T) {
	builder := payload.FlexImageBuilder{}

	text := builder.Build(payload.GenerationContext{Action: "A lighthouse at dusk"})
	if text.GenerationType != payload.TypeTextToImage {
		t.Fatalf("no images -> %s", text.GenerationType)
	}

	image := builder.Build(payload.GenerationContext{
		Action:        "A lighthouse at dusk",
		ContentImages: []string{"http://ref.jpg"},
	})
	if image.GenerationType != payload.TypeImageToImage {
		t.Fatalf("with images -> %s", image.GenerationType)
	}
}

func TestFlexImageAppendsStyleLast(t *testing.T) {
	idx := 0
	got := payload.FlexImageBuilder{}.Build(payload.GenerationContext{
		ContentImages:   []string{"http://a.jpg", "http://b.jpg"},
		StyleImage:      "http://style.jpg",
		StyleImageIndex: &idx,
	})
	want := []string{"http://a.jpg", "http://b.jpg", "http://style.jpg"}
	if !reflect.DeepEqual(got.ImageURLs, want) {
		t.Fatalf("image order = %v, want %v", got.ImageURLs, want)
	}
	if !strings.Contains(got.Prompt, "Image 3 defines the STYLE.") {
		t.Fatalf("prompt missing style slot reference:\n%s", got.Prompt)
	}
}

func TestBananaHonorsStyleImageIndex(t *testing.T) {
	idx := 0
	got := payload.BananaBuilder{}.Build(payload.GenerationContext{
		Action:          "Hero at the docks",
		ContentImages:   []string{"http://a.jpg", "http://b.jpg"},
		StyleImage:      "http://style.jpg",
		StyleImageIndex: &idx,
	})
	want := []string{"http://style.jpg", "http://a.jpg", "http://b.jpg"}
	if !reflect.DeepEqual(got.ImageURLs, want) {
		t.Fatalf("image order = %v, want %v", got.ImageURLs, want)
	}
	if !strings.Contains(got.Prompt, "Image 1 defines the STYLE.") {
		t.Fatalf("prompt missing style slot reference:\n%s", got.Prompt)
	}
	if !strings.Contains(got.Prompt, "IMAGE 2, IMAGE 3") {
		t.Fatalf("content images not renumbered around style:\n%s", got.Prompt)
	}
}

func TestBananaAppendsStyleWhenIndexPastEnd(t *testing.T) {
	idx := 2
	got := payload.BananaBuilder{}.Build(payload.GenerationContext{
		ContentImages:   []string{"http://a.jpg", "http://b.jpg"},
		StyleImage:      "http://style.jpg",
		StyleImageIndex: &idx,
	})
	if !strings.Contains(got.Prompt, "IMAGE 1, IMAGE 2") {
		t.Fatalf("content enumeration wrong:\n%s", got.Prompt)
	}
	if !strings.Contains(got.Prompt, "Image 3 defines the STYLE.") {
		t.Fatalf("style slot wrong:\n%s", got.Prompt)
	}
}

func TestPromptNumbersTrackArrayPositions(t *testing.T) {
	got := payload.FlexImageBuilder{}.Build(payload.GenerationContext{
		CharacterImages: [][]string{{"http://hero.jpg"}, {"http://villain.jpg"}},
		LocationImages:  []string{"http://docks.jpg"},
		ContentImages:   []string{"http://content.jpg"},
		StyleImage:      "http://style.jpg",
		StyleName:       "Noir",
		Action:          "Hero confronts Villain",
	})

	want := []string{
		"http://hero.jpg", "http://villain.jpg",
		"http://docks.jpg", "http://content.jpg", "http://style.jpg",
	}
	if !reflect.DeepEqual(got.ImageURLs, want) {
		t.Fatalf("image order = %v, want %v", got.ImageURLs, want)
	}
	for _, line := range []string{
		"STYLE: Noir.",
		"IMAGE 1 defines CHARACTER 1.",
		"IMAGE 2 defines CHARACTER 2.",
		"IMAGE 3 defines the LOCATION.",
		"Compose the scene from IMAGE 4.",
		"Image 5 defines the STYLE.",
		"PRIORITY RULE:",
		"OUTPUT SUBJECT: Hero confronts Villain",
	} {
		if !strings.Contains(got.Prompt, line) {
			t.Fatalf("prompt missing %q:\n%s", line, got.Prompt)
		}
	}
}

func TestBuildersDegradeWithoutOptionalFields(t *testing.T) {
	for _, builder := range []payload.Builder{
		payload.VideoBuilder{}, payload.FlexImageBuilder{}, payload.BananaBuilder{},
	} {
		got := builder.Build(payload.GenerationContext{Action: "Just the action"})
		if got.Prompt == "" {
			t.Fatalf("%T produced an empty prompt", builder)
		}
		if strings.Contains(got.Prompt, "PRIORITY RULE") {
			t.Fatalf("%T emitted a style clause without a style:\n%s", builder, got.Prompt)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	ctx := payload.GenerationContext{
		CharacterImages: [][]string{{"http://hero.jpg"}},
		ContentImages:   []string{"http://content.jpg"},
		StyleImage:      "http://style.jpg",
		StyleName:       "Noir",
		StyleStrength:   4,
		Action:          "Hero at the docks",
	}
	first := payload.FlexImageBuilder{}.Build(ctx)
	second := payload.FlexImageBuilder{}.Build(ctx)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("builds differ:\n%#v\n%#v", first, second)
	}
}
