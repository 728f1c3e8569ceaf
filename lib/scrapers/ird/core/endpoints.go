package core

// Endpoints holds every url the scrapers talk to. the portal does not
// publish these, they were taken from the browser's network panel.
type Endpoints struct {
	PanSearchPage     string `json:"pan_search_page"`
	PanDetails        string `json:"pan_details"`
	Login             string `json:"login"`
	VatReturns        string `json:"vat_returns"`
	CurrentDate       string `json:"current_date"`
	WithholderRecords string `json:"withholder_records"`
	Transactions      string `json:"transactions"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		PanSearchPage:     "https://ird.gov.np/pan-search",
		PanDetails:        "https://ird.gov.np/statstics/getPanSearch",
		Login:             "https://taxpayerportal.ird.gov.np/Handlers/E-SystemServices/Taxpayer/TaxPayerValidLoginHandler.ashx",
		VatReturns:        "https://taxpayerportal.ird.gov.np/Handlers/VAT/VatReturnsHandler.ashx",
		CurrentDate:       "https://taxpayerportal.ird.gov.np/Handlers/Common/DateHandler.ashx",
		WithholderRecords: "https://taxpayerportal.ird.gov.np/Handlers/TDS/GetTransactionHandler.ashx",
		Transactions:      "https://taxpayerportalb.ird.gov.np:8081/Handlers/TDS/InsertTransactionHandler.ashx",
	}
}

// WithDefaults fills every empty url with its default.
func (e Endpoints) WithDefaults() Endpoints {
	d := DefaultEndpoints()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&e.PanSearchPage, d.PanSearchPage)
	fill(&e.PanDetails, d.PanDetails)
	fill(&e.Login, d.Login)
	fill(&e.VatReturns, d.VatReturns)
	fill(&e.CurrentDate, d.CurrentDate)
	fill(&e.WithholderRecords, d.WithholderRecords)
	fill(&e.Transactions, d.Transactions)
	return e
}
