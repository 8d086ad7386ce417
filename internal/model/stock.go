package model

// ProductRecord is one catalog item as received from a snapshot source.
type ProductRecord struct {
	ID        string `json:"id" validate:"required,notblank"`
	Name      string `json:"name" validate:"required,notblank"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
}

// StockEntry is the persisted stock state of one item.
type StockEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
}

// Transition is an item that went from unavailable to available between two cycles.
type Transition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Entry converts the record into its persisted form.
func (r ProductRecord) Entry() StockEntry {
	return StockEntry{
		ID:        r.ID,
		Name:      r.Name,
		Quantity:  r.Quantity,
		Available: r.Available,
	}
}

// AvailableFlag encodes availability as the 0/1 integer stored by the repositories.
func AvailableFlag(available bool) int16 {
	if available {
		return 1
	}
	return 0
}
