package payment

// Package is one orderable catalog entry. Amounts live server-side only:
// a client-supplied amount is never read, the catalog is the sole price
// authority.
type Package struct {
	ID       string
	Name     string
	Amount   int64 // cents
	Currency string
	IsTest   bool
}

// Catalog is the static package mapping, loaded once at startup.
type Catalog struct {
	entries map[string]Package
}

// DefaultCatalog returns the pizza menu served by the public sites.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Package{
		{ID: "test_free", Name: "Pizza Test Gratuite (Démo)", Amount: 0, Currency: "EUR", IsTest: true},
		{ID: "small_pizza", Name: "Pizza Petite", Amount: 1290, Currency: "EUR"},
		{ID: "medium_pizza", Name: "Pizza Moyenne", Amount: 1690, Currency: "EUR"},
		{ID: "large_pizza", Name: "Pizza Grande", Amount: 1990, Currency: "EUR"},
		{ID: "family_pizza", Name: "Pizza Familiale", Amount: 2490, Currency: "EUR"},
		{ID: "margherita", Name: "Pizza Margherita", Amount: 1290, Currency: "EUR"},
		{ID: "napoletana", Name: "Pizza Napoletana", Amount: 1590, Currency: "EUR"},
		{ID: "quattro_formaggi", Name: "Pizza Quattro Formaggi", Amount: 1890, Currency: "EUR"},
		{ID: "diavola", Name: "Pizza Diavola", Amount: 1790, Currency: "EUR"},
		{ID: "vegetariana", Name: "Pizza Végétarienne", Amount: 1690, Currency: "EUR"},
		{ID: "prosciutto", Name: "Pizza Prosciutto", Amount: 1990, Currency: "EUR"},
	})
}

// NewCatalog indexes the given packages by id.
func NewCatalog(packages []Package) *Catalog {
	entries := make(map[string]Package, len(packages))
	for _, p := range packages {
		entries[p.ID] = p
	}
	return &Catalog{entries: entries}
}

// Get looks up a package by id.
func (c *Catalog) Get(id string) (Package, bool) {
	p, ok := c.entries[id]
	return p, ok
}

// Euros renders a cent amount as the decimal euro value used on the wire.
func Euros(cents int64) float64 {
	return float64(cents) / 100
}
