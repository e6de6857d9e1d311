// Package labels provides presentation data for the class names emitted by the tomato leaf disease model.
package labels

import "agriscan_backend/internal/feature/analysis/domain/entity"

// Severity levels used by the catalog.
const (
	SeverityHealthy = "healthy"
	SeverityLow     = "low"
	SeverityMedium  = "medium"
	SeverityHigh    = "high"
)

// Catalog is a partial mapping from class name to presentation data.
// Class names missing from the catalog are simply not enriched.
type Catalog struct {
	entries map[string]entity.LabelInfo
}

// NewCatalog creates a catalog from the given entries. A nil map yields an empty catalog.
func NewCatalog(entries map[string]entity.LabelInfo) *Catalog {
	c := &Catalog{entries: make(map[string]entity.LabelInfo, len(entries))}
	for k, v := range entries {
		c.entries[k] = v
	}
	return c
}

// Default returns the catalog of Turkish display names for the tomato leaf disease classes.
func Default() *Catalog {
	return NewCatalog(map[string]entity.LabelInfo{
		"Bacterial_spot":                {DisplayName: "Bakteriyel Leke", Severity: SeverityMedium},
		"Early_blight":                  {DisplayName: "Erken Yaniklik", Severity: SeverityMedium},
		"Late_blight":                   {DisplayName: "Gec Yaniklik", Severity: SeverityHigh},
		"Leaf_Mold":                     {DisplayName: "Yaprak Kufu", Severity: SeverityMedium},
		"Septoria_leaf_spot":            {DisplayName: "Septoria Yaprak Lekesi", Severity: SeverityMedium},
		"Spider_mites":                  {DisplayName: "Kirmizi Orumcek", Severity: SeverityLow},
		"Target_Spot":                   {DisplayName: "Hedef Leke", Severity: SeverityMedium},
		"Tomato_Yellow_Leaf_Curl_Virus": {DisplayName: "Sari Yaprak Kivircikligi", Severity: SeverityHigh},
		"Tomato_mosaic_virus":           {DisplayName: "Mozaik Virusu", Severity: SeverityHigh},
		"healthy":                       {DisplayName: "Saglikli", Severity: SeverityHealthy},
		"Healthy":                       {DisplayName: "Saglikli", Severity: SeverityHealthy},
	})
}

// Lookup returns the presentation data for className.
func (c *Catalog) Lookup(className string) (entity.LabelInfo, bool) {
	if c == nil {
		return entity.LabelInfo{}, false
	}
	info, ok := c.entries[className]
	return info, ok
}
