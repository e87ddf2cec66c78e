package render

import (
	"strings"
	"testing"

	"stagevision/internal/styles"
)

func TestFallbackInstructionVacant(t *testing.T) {
	got := FallbackInstruction("living_room", styles.Scandinavian, false)
	for _, want := range []string{"empty room", "Scandinavian", "sofa", "light oak"} {
		if !strings.Contains(got, want) {
			t.Errorf("fallback missing %q: %s", want, got)
		}
	}
	if strings.Contains(got, "Remove all existing") {
		t.Error("vacant fallback should not ask for decluttering")
	}
}

func TestFallbackInstructionOccupied(t *testing.T) {
	got := FallbackInstruction("bedroom", styles.Coastal, true)
	if !strings.Contains(got, "Remove all existing furniture") {
		t.Errorf("occupied fallback should declutter first: %s", got)
	}
	if !strings.Contains(got, "queen bed") {
		t.Errorf("bedroom fallback should name furniture: %s", got)
	}
}

func TestFallbackInstructionUnknownRoom(t *testing.T) {
	got := FallbackInstruction("wine_cellar", styles.Modern, false)
	if !strings.Contains(got, "appropriately scaled furniture") {
		t.Errorf("unknown room should use generic furniture: %s", got)
	}
}
