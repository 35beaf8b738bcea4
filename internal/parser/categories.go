package parser

import (
	"strings"

	"github.com/insightdelivered/closure-importer/internal/models"
)

// categoryRule maps breakdown labels containing any keyword to a category.
type categoryRule struct {
	category models.Category
	keywords []string
}

// categoryRules is checked top to bottom; the first rule with a matching
// keyword wins, so "Instalación batería" books as installation.
var categoryRules = []categoryRule{
	{models.CatInstallation, []string{"instal"}},
	{models.CatRepair, []string{"repar"}},
	{models.CatTravel, []string{"despl"}},
	{models.CatDistance, []string{"kil", "km"}},
	{models.CatMeals, []string{"comida"}},
	{models.CatMaterials, []string{"material"}},
	{models.CatBattery, []string{"bater"}},
	{models.CatVehicle, []string{"furg"}},
	{models.CatFixedFee, []string{"fijo"}},
}

// matchCategory maps a breakdown label to its category. Labels that match no
// rule report false and are dropped by the caller.
func matchCategory(label string) (models.Category, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(label, kw) {
				return rule.category, true
			}
		}
	}
	return "", false
}
