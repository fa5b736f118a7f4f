package model

// Company is the primary registry record of a legal entity, as resolved
// by the corporate registry lookup. Immutable once obtained.
type Company struct {
	INN       string
	OGRN      string
	KPP       string
	NameFull  string
	NameShort string

	Status         string // ACTIVE, LIQUIDATING, LIQUIDATED, BANKRUPT, ...
	RegistrationMs int64  // unix milliseconds, 0 when unknown
	ActualityMs    int64  // when the registry last confirmed the record
	Invalid        bool   // registry marked the record as unreliable

	Address   string
	AddressQC *int // address verification code, nil when absent, 0 means confirmed

	Capital float64

	ManagerName string
	ManagerPost string
	Managers    []ManagerEntry

	OKVED   string
	Finance *Finance
}

// ManagerEntry is one row of the manager history list. Used to guess
// the appointment date of the current manager.
type ManagerEntry struct {
	Surname string
	Post    string
	DateMs  int64
}

// Finance is the latest financial snapshot reported to the registry.
// Pointers distinguish "zero" from "not reported".
type Finance struct {
	Year    int
	Revenue *float64
	Income  *float64
	Expense *float64
	Profit  *float64
}

// DisplayName returns the best available company name.
func (c *Company) DisplayName() string {
	if c.NameFull != "" {
		return c.NameFull
	}
	if c.NameShort != "" {
		return c.NameShort
	}
	return "Неизвестно"
}
