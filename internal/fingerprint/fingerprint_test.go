package fingerprint

import (
	"regexp"
	"testing"

	"github.com/insightdelivered/closure-importer/internal/models"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{8}$`)

func TestNormalizeBreakdown(t *testing.T) {
	got := NormalizeBreakdown(models.Breakdown{
		models.CatTravel:       2500,
		models.CatInstallation: 10000,
	})
	want := "instalacion=10000|reparacion=0|desplazamiento=2500|km=0|comida=0|material=0|bateria=0|furgon=0|fijo=0"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	empty := NormalizeBreakdown(nil)
	if empty != "instalacion=0|reparacion=0|desplazamiento=0|km=0|comida=0|material=0|bateria=0|furgon=0|fijo=0" {
		t.Errorf("nil breakdown: got %q", empty)
	}
}

func TestNormalizeBreakdown_InsertionOrderIndependent(t *testing.T) {
	a := models.Breakdown{}
	a[models.CatInstallation] = 10000
	a[models.CatTravel] = 2500
	a[models.CatFixedFee] = 300

	b := models.Breakdown{}
	b[models.CatFixedFee] = 300
	b[models.CatTravel] = 2500
	b[models.CatInstallation] = 10000

	if NormalizeBreakdown(a) != NormalizeBreakdown(b) {
		t.Error("normalization depends on insertion order")
	}
}

func TestNormalizeBreakdown_ZeroEqualsAbsent(t *testing.T) {
	a := models.Breakdown{models.CatInstallation: 100, models.CatRepair: 0}
	b := models.Breakdown{models.CatInstallation: 100}
	if NormalizeBreakdown(a) != NormalizeBreakdown(b) {
		t.Error("explicit zero and absent category normalize differently")
	}
}

func TestFingerprint_KnownValue(t *testing.T) {
	norm := NormalizeBreakdown(models.Breakdown{
		models.CatInstallation: 10000,
		models.CatTravel:       2500,
	})
	got := Fingerprint("2024-03-10", models.WorkInstallation, "4021", 12500, norm)
	if got != "d6340d44" {
		t.Errorf("got %q, want %q", got, "d6340d44")
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	norm := NormalizeBreakdown(models.Breakdown{models.CatRepair: 4000})
	first := Fingerprint("2024-03-11", models.WorkRepair, "77", 4000, norm)
	for i := 0; i < 50; i++ {
		if got := Fingerprint("2024-03-11", models.WorkRepair, "77", 4000, norm); got != first {
			t.Fatalf("call %d: got %q, want %q", i, got, first)
		}
	}
	if !hexID.MatchString(first) {
		t.Errorf("fingerprint %q is not 8 lowercase hex digits", first)
	}
}

func TestFingerprint_FieldSensitivity(t *testing.T) {
	norm := NormalizeBreakdown(models.Breakdown{models.CatInstallation: 10000})
	base := Fingerprint("2024-03-10", models.WorkInstallation, "4021", 10000, norm)

	tests := []struct {
		name string
		got  string
	}{
		{"date", Fingerprint("2024-03-11", models.WorkInstallation, "4021", 10000, norm)},
		{"type", Fingerprint("2024-03-10", models.WorkRepair, "4021", 10000, norm)},
		{"client", Fingerprint("2024-03-10", models.WorkInstallation, "4022", 10000, norm)},
		{"total", Fingerprint("2024-03-10", models.WorkInstallation, "4021", 10001, norm)},
		{"breakdown", Fingerprint("2024-03-10", models.WorkInstallation, "4021", 10000,
			NormalizeBreakdown(models.Breakdown{models.CatRepair: 10000}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got == base {
				t.Errorf("changing %s did not change the fingerprint", tt.name)
			}
		})
	}
}

func TestForItem(t *testing.T) {
	it := &models.WorkItem{
		Date:        "2024-03-10",
		Type:        models.WorkInstallation,
		ClientID:    "4021",
		TotalCents:  12500,
		Breakdown:   models.Breakdown{models.CatTravel: 2500, models.CatInstallation: 10000},
		Technicians: []string{"Ana"},
		Observation: "not part of the identity",
	}
	if got := ForItem(it); got != "d6340d44" {
		t.Errorf("got %q, want %q", got, "d6340d44")
	}
}
