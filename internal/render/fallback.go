package render

import (
	"fmt"
	"strings"

	"stagevision/internal/styles"
)

// genericFurniture names a safe furniture set per room type, used when the
// tailored instruction keeps failing and a plainer prompt gets a better shot.
var genericFurniture = map[string]string{
	"living_room": "a comfortable sofa, a coffee table, an area rug, and an accent chair",
	"bedroom":     "a queen bed with layered bedding, two nightstands with lamps, and a bench at the foot of the bed",
	"kitchen":     "bar stools at the counter, a bowl of fresh fruit, and a small herb planter",
	"bathroom":    "fresh towels, a bath mat, and simple counter accessories",
	"dining_room": "a dining table set for six with a centerpiece and a sideboard",
	"office":      "a desk with a chair, a bookshelf, and a reading lamp",
	"exterior":    "tasteful outdoor seating and potted plants",
}

const defaultFurniture = "tasteful, appropriately scaled furniture for this room"

// FallbackInstruction builds a generic staging prompt from the room type and
// style alone, without the analysis model's tailored output.
func FallbackInstruction(roomType string, style styles.Key, occupied bool) string {
	spec := style.Spec()
	furniture := genericFurniture[strings.ToLower(roomType)]
	if furniture == "" {
		furniture = defaultFurniture
	}

	var b strings.Builder
	if occupied {
		b.WriteString("Remove all existing furniture, clutter, and personal items from this room. Then virtually stage it")
	} else {
		b.WriteString("Virtually stage this empty room")
	}
	fmt.Fprintf(&b, " in a %s style. Add %s.", spec.DisplayName, furniture)
	fmt.Fprintf(&b, " Use a color palette of %s.", strings.Join(spec.Palette, ", "))
	fmt.Fprintf(&b, " Lighting: %s.", spec.Lighting)
	b.WriteString(" Preserve the room's architecture, windows, doors, flooring, and wall positions exactly. Photorealistic result.")
	return b.String()
}
