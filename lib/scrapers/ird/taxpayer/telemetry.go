package taxpayer

import "ird-scraper/lib/telemetry"

var tracer = telemetry.Tracer("ird.lib.scrapers.ird.taxpayer")
