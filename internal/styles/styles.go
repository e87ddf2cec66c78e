// Package styles maps the free-text style labels supplied by the intake form
// to a closed set of internal staging styles.
package styles

import "strings"

// Key identifies one of the supported staging styles.
type Key string

const (
	Modern             Key = "modern"
	Scandinavian       Key = "scandinavian"
	Coastal            Key = "coastal"
	Farmhouse          Key = "farmhouse"
	Midcentury         Key = "midcentury"
	ArchitectureDigest Key = "architecture_digest"
)

// Default is used when an incoming label cannot be recognized.
const Default = Modern

// Spec captures the design language of a style. It feeds prompt construction
// and the delivery email; it is data, not behavior.
type Spec struct {
	DisplayName string
	Palette     []string
	Furniture   string
	Lighting    string
}

var specs = map[Key]Spec{
	Modern: {
		DisplayName: "Modern",
		Palette:     []string{"warm white", "charcoal", "walnut", "brass"},
		Furniture:   "clean-lined contemporary pieces with warm minimalism, low profiles, mixed textures",
		Lighting:    "layered neutral lighting, matte black or brass fixtures",
	},
	Scandinavian: {
		DisplayName: "Scandinavian",
		Palette:     []string{"white", "light oak", "pale gray", "sage"},
		Furniture:   "light woods, cozy textiles, simple silhouettes, hygge layering",
		Lighting:    "soft diffuse daylight, paper or linen shades",
	},
	Coastal: {
		DisplayName: "Coastal",
		Palette:     []string{"white", "sand", "driftwood", "ocean blue"},
		Furniture:   "relaxed beach-house elegance, natural fiber textures, slipcovered seating",
		Lighting:    "bright airy daylight, woven pendant shades",
	},
	Farmhouse: {
		DisplayName: "Farmhouse",
		Palette:     []string{"cream", "reclaimed wood", "matte black", "sage"},
		Furniture:   "modern farmhouse with rustic warmth, shiplap accents, vintage charm",
		Lighting:    "warm Edison-style fixtures, lantern pendants",
	},
	Midcentury: {
		DisplayName: "Mid-Century Modern",
		Palette:     []string{"teak", "mustard", "burnt orange", "cream"},
		Furniture:   "iconic 1950s-60s design, organic forms, tapered legs, statement pieces",
		Lighting:    "sculptural globe and arc lamps",
	},
	ArchitectureDigest: {
		DisplayName: "Architecture Digest",
		Palette:     []string{"cream", "oatmeal", "sage", "aged brass", "terracotta"},
		Furniture:   "editorial designer pieces in natural materials, boucle and linen, vintage rugs",
		Lighting:    "golden-hour warmth, brass accents, linen shades",
	},
}

// Spec returns the design record for the key, falling back to the default
// style for unknown keys so callers never handle a missing entry.
func (k Key) Spec() Spec {
	if s, ok := specs[k]; ok {
		return s
	}
	return specs[Default]
}

// DisplayName returns the client-facing name for the style.
func (k Key) DisplayName() string {
	return k.Spec().DisplayName
}

// All returns the supported style keys.
func All() []Key {
	return []Key{Modern, Scandinavian, Coastal, Farmhouse, Midcentury, ArchitectureDigest}
}

// labelTable maps intake dropdown text to internal keys. The dropdown values
// must match exactly, punctuation included; legacy variants are kept because
// old records replay through the webhook.
var labelTable = map[string]Key{
	// Short names.
	"Modern":               Modern,
	"Scandinavian":         Scandinavian,
	"Coastal":              Coastal,
	"Farmhouse":            Farmhouse,
	"Mid-Century Modern":   Midcentury,
	"Mid-Century":          Midcentury,
	"Midcentury":           Midcentury,
	"Architecture Digest":  ArchitectureDigest,
	"AD":                   ArchitectureDigest,

	// Current dropdown values.
	"Architecture Digest (Editorial, warm, sophisticated)":      ArchitectureDigest,
	"Modern (Clean contemporary design with warm minimalism)":   Modern,
	"Coastal (Relaxed beach house elegance)":                    Coastal,
	"Farmhouse (Modern farmhouse with rustic warmth)":           Farmhouse,
	"Mid-Century Modern (Iconic 1950s-60s design)":              Midcentury,
	"Scandinavian (Nordic-inspired warmth and simplicity)":      Scandinavian,

	// Legacy dropdown values.
	"Modern (Clean contemporary design with warm minimalism. Sophisticated but livable.)":                                Modern,
	"Scandinavian (Nordic-inspired warmth and simplicity. Light woods, cozy textures, hygge atmosphere.)":                Scandinavian,
	"Coastal (Relaxed beach house elegance. Natural textures, ocean-inspired palette.)":                                  Coastal,
	"Farmhouse (Modern farmhouse with rustic warmth. Shiplap, reclaimed wood, vintage charm.)":                           Farmhouse,
	"Mid-Century Modern (Iconic 1950s-60s design. Organic forms, tapered legs, statement furniture.)":                    Midcentury,
	"Architecture Digest (Editorial, warm, sophisticated - California wine country aesthetic with golden-hour lighting.)": ArchitectureDigest,

	// Lowercase variants.
	"modern":               Modern,
	"scandinavian":         Scandinavian,
	"coastal":              Coastal,
	"farmhouse":            Farmhouse,
	"midcentury":           Midcentury,
	"mid-century":          Midcentury,
	"architecture_digest":  ArchitectureDigest,
	"architecture digest":  ArchitectureDigest,
}

// prefixTable matches the canonical name before any "(" suffix, so edited
// dropdown descriptions keep resolving.
var prefixTable = map[string]Key{
	"modern":              Modern,
	"scandinavian":        Scandinavian,
	"coastal":             Coastal,
	"farmhouse":           Farmhouse,
	"mid-century modern":  Midcentury,
	"mid-century":         Midcentury,
	"midcentury":          Midcentury,
	"architecture digest": ArchitectureDigest,
	"ad":                  ArchitectureDigest,
}

// Resolve maps an arbitrary style label to an internal key. It is total:
// every input, including the empty string, yields a key. The second return is
// false when the label was not recognized and the default was used; callers
// should log that case.
func Resolve(raw string) (Key, bool) {
	if raw == "" {
		return Default, false
	}

	if key, ok := labelTable[raw]; ok {
		return key, true
	}

	lower := strings.ToLower(raw)
	for label, key := range labelTable {
		if strings.ToLower(label) == lower {
			return key, true
		}
	}

	prefix := strings.ToLower(strings.TrimSpace(strings.SplitN(raw, "(", 2)[0]))
	if key, ok := prefixTable[prefix]; ok {
		return key, true
	}

	return Default, false
}
