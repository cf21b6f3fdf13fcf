package domain

import "strings"

// Plan is a static subscription catalog entry bounding how many jobs a user
// may create before renewal or upgrade.
type Plan struct {
	ID              string
	Name            string
	ConversionLimit int
	PriceDisplay    string
	IsTrial         bool
}

// Plan identifiers.
const (
	PlanTrial    = "Trial"
	PlanBasic    = "Basic"
	PlanStandard = "Standard"
	PlanPremium  = "Premium"
)

var planCatalog = map[string]Plan{
	strings.ToLower(PlanTrial): {
		ID:              PlanTrial,
		Name:            "Trial",
		ConversionLimit: 5,
		PriceDisplay:    "Free",
		IsTrial:         true,
	},
	strings.ToLower(PlanBasic): {
		ID:              PlanBasic,
		Name:            "Basic",
		ConversionLimit: 500,
		PriceDisplay:    "150.000₫/month",
		IsTrial:         false,
	},
	strings.ToLower(PlanStandard): {
		ID:              PlanStandard,
		Name:            "Standard",
		ConversionLimit: 2000,
		PriceDisplay:    "500.000₫/month",
		IsTrial:         false,
	},
	strings.ToLower(PlanPremium): {
		ID:              PlanPremium,
		Name:            "Premium",
		ConversionLimit: 5000,
		PriceDisplay:    "1.000.000₫/month",
		IsTrial:         false,
	},
}

// PlanByID returns the catalog entry for an identifier, case-insensitively.
// Unknown or blank identifiers fall back to the Trial plan.
func PlanByID(id string) Plan {
	if plan, ok := planCatalog[strings.ToLower(strings.TrimSpace(id))]; ok {
		return plan
	}

	return planCatalog[strings.ToLower(PlanTrial)]
}

// Plans returns every catalog entry.
func Plans() []Plan {
	all := make([]Plan, 0, len(planCatalog))
	for _, plan := range planCatalog {
		all = append(all, plan)
	}

	return all
}
