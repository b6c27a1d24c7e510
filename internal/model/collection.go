package model

// CollectionKind names one of the per-user record collections.
type CollectionKind string

const (
	KindExpenses  CollectionKind = "expenses"
	KindGroceries CollectionKind = "groceries"
)

// CollectionKinds lists every collection provisioned for a user.
var CollectionKinds = []CollectionKind{KindExpenses, KindGroceries}

// IsValid reports whether k is a known collection kind.
func (k CollectionKind) IsValid() bool {
	return k == KindExpenses || k == KindGroceries
}

// FileName returns the on-disk file name of the collection.
func (k CollectionKind) FileName() string {
	return string(k) + ".json"
}

// Singular returns the human name of one item, used in error messages.
func (k CollectionKind) Singular() string {
	switch k {
	case KindExpenses:
		return "Expense"
	case KindGroceries:
		return "Grocery"
	default:
		return "Record"
	}
}
