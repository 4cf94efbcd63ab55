/*
presets.go - Built-in demo catalog

PURPOSE:
  Provides a ready-to-use catalog covering every charge model, so demo
  scenarios and tests can price realistic products without a catalog file.

AVAILABLE PRODUCTS:
  energy-billing:   PDL based billing, Cloud (subscription) and On-Premise
                    (license + fee) rate plans
  document-archive: Invoice archive with volume tiers and usage storage
  support-premium:  Flat recurring support fee
  discount-line:    Discount line item, customer price may be negative

AVAILABLE MIGRATION PATHS:
  cloud-first: Replace the legacy on-premise products with Cloud plans
  hybrid:      Keep the archive on premise, move billing to Cloud

SEE ALSO:
  - catalog.go: Document schema and parser
  - api/scenarios.go: Loads the presets into the store
*/
package catalog

import "encoding/json"

func f(v float64) *float64 { return &v }

func eur(price float64) []PricingJSON {
	return []PricingJSON{{Currency: "EUR", Price: f(price)}}
}

// DemoDocument returns the demo catalog document.
func DemoDocument() Document {
	return Document{
		Products: []ProductJSON{
			energyBilling(),
			documentArchive(),
			{
				ID:       "support-premium",
				Name:     "Premium Support",
				Category: "Services",
				RatePlans: []RatePlanJSON{{
					ID:   "support-premium-std",
					Name: "Premium Support",
					Charges: []ChargeJSON{{
						ID: "support-premium-fee", Name: "Annual fee",
						Type: "Recurring", Model: "FlatFee", Pricing: eur(1200),
					}},
				}},
			},
			{
				ID:                 "discount-line",
				Name:               "Commercial Discount",
				Category:           "Discount",
				AllowNegativePrice: true,
				RatePlans: []RatePlanJSON{{
					ID:   "discount-line-std",
					Name: "Discount",
					Charges: []ChargeJSON{{
						ID: "discount-line-fee", Name: "Discount",
						Type: "OneTime", Model: "FlatFee", Pricing: eur(0),
					}},
				}},
			},
		},
		MigrationPaths: []PathJSON{
			{
				ID:    "cloud-first",
				Title: "Cloud First",
				Products: []PathProductJSON{
					{ID: "cf-billing", CatalogID: "energy-billing", Name: "Energy Billing Cloud", Category: "Billing",
						Price: 12000, CustomerPrice: f(11400), ReplacesProductID: "legacy-billing"},
					{ID: "cf-archive", CatalogID: "document-archive", Name: "Document Archive Cloud", Category: "Archive",
						Price: 3900, ReplacesProductID: "legacy-archive"},
					{ID: "cf-support", CatalogID: "support-premium", Name: "Premium Support", Category: "Services",
						Price: 1200},
				},
			},
			{
				ID:    "hybrid",
				Title: "Hybrid",
				Products: []PathProductJSON{
					{ID: "hy-billing", CatalogID: "energy-billing", Name: "Energy Billing Cloud", Category: "Billing",
						Price: 12000, ReplacesProductID: "legacy-billing"},
				},
			},
		},
	}
}

func energyBilling() ProductJSON {
	return ProductJSON{
		ID:          "energy-billing",
		Name:        "Energy Billing",
		Category:    "Billing",
		Description: "Billing for energy retailers, priced per delivery point (PDL)",
		RatePlans: []RatePlanJSON{
			{
				ID:             "eb-cloud",
				Name:           "Energy Billing Cloud",
				Infrastructure: "Cloud",
				UnitOfMeasure:  "PDL",
				SalesModel:     "Canone",
				Charges: []ChargeJSON{
					{ID: "eb-cloud-pdl", Name: "PDL", Type: "Recurring", Model: "PerUnit", UOM: "PDL", Pricing: eur(3.52)},
					{ID: "eb-cloud-setup", Name: "Setup", Type: "OneTime", Model: "FlatFee", Pricing: eur(2500)},
				},
			},
			{
				ID:             "eb-onprem",
				Name:           "Energy Billing On-Premise",
				Infrastructure: "On-Premise",
				UnitOfMeasure:  "PDL",
				SalesModel:     "Licenza + Canone",
				Charges: []ChargeJSON{
					{ID: "eb-onprem-license", Name: "License", Type: "OneTime", Model: "FlatFee", Pricing: eur(18000)},
					{ID: "eb-onprem-pdl", Name: "PDL maintenance", Type: "Recurring", Model: "PerUnit", UOM: "PDL", Pricing: eur(1.10)},
				},
			},
		},
	}
}

func documentArchive() ProductJSON {
	return ProductJSON{
		ID:       "document-archive",
		Name:     "Document Archive",
		Category: "Archive",
		RatePlans: []RatePlanJSON{{
			ID:             "da-cloud",
			Name:           "Document Archive Cloud",
			Infrastructure: "Cloud",
			UnitOfMeasure:  "Fatture",
			SalesModel:     "Canone",
			Charges: []ChargeJSON{
				{
					ID: "da-cloud-invoices", Name: "Invoices per year", Type: "Recurring", Model: "Volume", UOM: "Fatture",
					Pricing: []PricingJSON{{
						Currency: "EUR",
						Tiers: []TierJSON{
							{StartingUnit: 0, EndingUnit: f(30), Price: 500},
							{StartingUnit: 31, EndingUnit: f(10000), Price: 1900},
							{StartingUnit: 10001, Price: 3900},
						},
					}},
				},
				{ID: "da-cloud-storage", Name: "Extra storage", Type: "Usage", Model: "Usage", UOM: "GB", Pricing: eur(0.15)},
			},
		}},
	}
}

// DemoCatalog returns the parsed demo catalog.
func DemoCatalog() *Catalog {
	cat, err := NewParser().FromDocument(DemoDocument())
	if err != nil {
		panic("catalog: invalid demo catalog: " + err.Error())
	}
	return cat
}

// DemoCatalogJSON returns the demo catalog as JSON, e.g. for the import API.
func DemoCatalogJSON() string {
	b, _ := json.MarshalIndent(DemoDocument(), "", "  ")
	return string(b)
}
