package payload

import (
	"fmt"
	"strings"
)

type slotKind int

const (
	slotCharacter slotKind = iota
	slotLocation
	slotContent
	slotStyle
)

type slot struct {
	kind  slotKind
	group int // character group, in clip order
	url   string
}

// layout is the numbered image sequence handed to the provider. Positions
// are 1-based and always track the actual array order.
type layout struct {
	ordered            []string
	characterPositions [][]int
	locationPositions  []int
	contentPositions   []int
	stylePosition      int // 0 when no style image
}

// buildLayout orders images as character, location, content, then style. When
// honorStyleIndex is set and the context carries a style index, the style
// image is inserted at that zero-based position instead of appended, and the
// other images renumber contiguously around it.
func buildLayout(ctx GenerationContext, honorStyleIndex bool) layout {
	var slots []slot
	for group, urls := range ctx.CharacterImages {
		for _, url := range urls {
			slots = append(slots, slot{kind: slotCharacter, group: group, url: url})
		}
	}
	for _, url := range ctx.LocationImages {
		slots = append(slots, slot{kind: slotLocation, url: url})
	}
	for _, url := range ctx.ContentImages {
		slots = append(slots, slot{kind: slotContent, url: url})
	}

	if ctx.StyleImage != "" {
		styleSlot := slot{kind: slotStyle, url: ctx.StyleImage}
		at := len(slots)
		if honorStyleIndex && ctx.StyleImageIndex != nil {
			if idx := *ctx.StyleImageIndex; idx >= 0 && idx < at {
				at = idx
			}
		}
		slots = append(slots[:at], append([]slot{styleSlot}, slots[at:]...)...)
	}

	out := layout{characterPositions: make([][]int, len(ctx.CharacterImages))}
	for i, s := range slots {
		pos := i + 1
		out.ordered = append(out.ordered, s.url)
		switch s.kind {
		case slotCharacter:
			out.characterPositions[s.group] = append(out.characterPositions[s.group], pos)
		case slotLocation:
			out.locationPositions = append(out.locationPositions, pos)
		case slotContent:
			out.contentPositions = append(out.contentPositions, pos)
		case slotStyle:
			out.stylePosition = pos
		}
	}
	return out
}

// assemblePrompt builds the sandwich prompt: style header, positional image
// references, the action text, then the priority rule and output subject.
func assemblePrompt(ctx GenerationContext, l layout) string {
	styled := ctx.StyleName != "" || l.stylePosition > 0

	var sections []string
	if ctx.StyleName != "" {
		sections = append(sections, fmt.Sprintf("STYLE: %s.", ctx.StyleName))
	}

	for group, positions := range l.characterPositions {
		if len(positions) == 0 {
			continue
		}
		sections = append(sections,
			fmt.Sprintf("%s defines CHARACTER %d.", enumerateImages(positions), group+1))
	}
	if len(l.locationPositions) > 0 {
		sections = append(sections,
			fmt.Sprintf("%s defines the LOCATION.", enumerateImages(l.locationPositions)))
	}
	if len(l.contentPositions) > 0 {
		sections = append(sections,
			fmt.Sprintf("Compose the scene from %s.", enumerateImages(l.contentPositions)))
	}
	if l.stylePosition > 0 {
		sections = append(sections, fmt.Sprintf("Image %d defines the STYLE.", l.stylePosition))
	}

	if action := strings.TrimSpace(ctx.Action); action != "" {
		sections = append(sections, action)
	}
	if dialog := strings.TrimSpace(ctx.Dialog); dialog != "" {
		sections = append(sections, fmt.Sprintf("Dialog: %q.", dialog))
	}
	if camera := strings.TrimSpace(ctx.Camera); camera != "" {
		sections = append(sections, fmt.Sprintf("Camera: %s.", camera))
	}

	if styled {
		sections = append(sections,
			"PRIORITY RULE: the content images define WHAT is in the scene; the style image and style description define only HOW it is rendered.")
	}
	if subject := outputSubject(ctx); subject != "" {
		sections = append(sections, fmt.Sprintf("OUTPUT SUBJECT: %s", subject))
	}
	return strings.Join(sections, "\n")
}

// enumerateImages renders 1-based positions as "IMAGE 1, IMAGE 2".
func enumerateImages(positions []int) string {
	parts := make([]string, len(positions))
	for i, pos := range positions {
		parts[i] = fmt.Sprintf("IMAGE %d", pos)
	}
	return strings.Join(parts, ", ")
}

func outputSubject(ctx GenerationContext) string {
	if action := strings.TrimSpace(ctx.Action); action != "" {
		return action
	}
	return strings.TrimSpace(ctx.Dialog)
}
