package vision

import (
	"fmt"
	"strings"
)

// buildAnalysisInstruction composes the text prompt sent alongside the photo.
// The model must answer in a single JSON object matching the Analysis shape.
func buildAnalysisInstruction(req Request) string {
	spec := req.Style.Spec()

	var b strings.Builder
	b.WriteString("You are an expert real estate virtual staging consultant analyzing a listing photo.\n\n")

	fmt.Fprintf(&b, "The client selected the %q staging style:\n", spec.DisplayName)
	fmt.Fprintf(&b, "- Color palette: %s\n", strings.Join(spec.Palette, ", "))
	fmt.Fprintf(&b, "- Furniture: %s\n", spec.Furniture)
	fmt.Fprintf(&b, "- Lighting: %s\n\n", spec.Lighting)

	if req.Occupied {
		b.WriteString("The property is OCCUPIED: existing furniture and personal items must be removed or replaced, not merely added to.\n\n")
	} else {
		b.WriteString("The property is VACANT: rooms are empty and need complete furnishing.\n\n")
	}

	if req.Comments != "" {
		fmt.Fprintf(&b, "Client notes: %s\n\n", req.Comments)
	}

	b.WriteString(`Analyze this photo and respond with a single JSON object, no markdown, no commentary:
{
  "room_type": "one of: living_room, bedroom, kitchen, bathroom, dining_room, office, exterior, other",
  "is_occupied": true or false (does the room currently contain furniture or personal items),
  "issues": ["visible problems to fix during staging, e.g. clutter, harsh lighting"],
  "suggested_style": "style that best suits this room",
  "staging_prompt": "a detailed, self-contained instruction for an image generation model describing exactly how to virtually stage this room in the selected style. Name specific furniture pieces, their placement, materials, and colors. Preserve the room's architecture, windows, flooring, and wall positions exactly."
}`)

	return b.String()
}
