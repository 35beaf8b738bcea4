package parser

import (
	"reflect"
	"testing"

	"github.com/insightdelivered/closure-importer/internal/models"
)

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		label    string
		expected models.Category
		ok       bool
	}{
		{"Instalación", models.CatInstallation, true},
		{"INSTALACION", models.CatInstallation, true},
		{"Reparación", models.CatRepair, true},
		{"Desplazamiento", models.CatTravel, true},
		{"Kilometraje", models.CatDistance, true},
		{"Km", models.CatDistance, true},
		{"Comida", models.CatMeals, true},
		{"Material", models.CatMaterials, true},
		{"Materiales", models.CatMaterials, true},
		{"Batería", models.CatBattery, true},
		{"Furgón", models.CatVehicle, true},
		{"Fijo", models.CatFixedFee, true},
		{"Precio fijo", models.CatFixedFee, true},
		// Priority order: installation is checked before battery.
		{"Instalación batería", models.CatInstallation, true},
		{"Reparación material", models.CatRepair, true},
		{"Peaje", "", false},
		{"Total del día", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := matchCategory(tt.label)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("matchCategory(%q): got (%q, %v), want (%q, %v)", tt.label, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestCategoryRulesCoverCategories(t *testing.T) {
	if len(categoryRules) != len(models.Categories) {
		t.Fatalf("rules: got %d, want one per category (%d)", len(categoryRules), len(models.Categories))
	}
	for i, rule := range categoryRules {
		if rule.category != models.Categories[i] {
			t.Errorf("rule %d: got %q, want %q", i, rule.category, models.Categories[i])
		}
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("  a \r\n\n b\n\t\n c")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitTechnicians(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Ana + Luis", []string{"Ana", "Luis"}},
		{"Ana", []string{"Ana"}},
		{" + ", []string{}},
		{"Ana García+Luis Pérez+ Marta ", []string{"Ana García", "Luis Pérez", "Marta"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := splitTechnicians(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWorkTypeFromLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected models.WorkType
	}{
		{"INSTALACION", models.WorkInstallation},
		{"instalación", models.WorkInstallation},
		{"Reparacion", models.WorkRepair},
		{"mantenimiento", models.WorkMaintenance},
		{"limpieza", ""},
	}

	for _, tt := range tests {
		if got := workTypeFromLabel(tt.input); got != tt.expected {
			t.Errorf("workTypeFromLabel(%q): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}
