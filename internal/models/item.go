package models

// NameCount is the number of interchangeable display names an item carries.
const NameCount = 3

// Item represents a catalog entry priced per kilogram.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// Name1, Name2 and Name3 are interchangeable display names
	// (e.g. English, local language and shop shorthand).
	Name1 string `json:"name1"`
	Name2 string `json:"name2"`
	Name3 string `json:"name3"`

	// SellPrice is the selling price per kilogram, rounded to 2 decimals.
	SellPrice float64 `json:"sprice"`

	// BuyPrice is the bought price per kilogram, rounded to 2 decimals.
	BuyPrice float64 `json:"bprice"`

	// ShowNameIdx selects which of the three names is displayed.
	// Always read modulo NameCount.
	ShowNameIdx int `json:"showNameIdx"`

	// Presets holds the item's weight chips. Empty means the defaults
	// from Settings apply.
	Presets ItemPresets `json:"presets"`
}

// ItemPresets groups preset chips of an item.
type ItemPresets struct {
	// Weight lists preset weights in grams.
	Weight []float64 `json:"weight,omitempty"`
}

// Names returns the three names in order.
func (it Item) Names() [NameCount]string {
	return [NameCount]string{it.Name1, it.Name2, it.Name3}
}

// DisplayName returns the currently selected name, falling back to the
// first non-empty one.
func (it Item) DisplayName() string {
	names := it.Names()
	idx := it.ShowNameIdx % NameCount
	if idx < 0 {
		idx += NameCount
	}
	if names[idx] != "" {
		return names[idx]
	}
	for _, n := range names {
		if n != "" {
			return n
		}
	}
	return ""
}
