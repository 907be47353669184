package domain

// RawSaleTx is one sale transaction as delivered by the upstream data
// provider. All fields are strings; normalization parses and validates them.
type RawSaleTx struct {
	ContractDate string `json:"contractDate"` // "MMYY"
	AreaSqm      string `json:"area"`         // area in square meters, decimal string
	Price        string `json:"price"`        // transacted price, decimal string
	FloorRange   string `json:"floorRange"`   // "06 to 10", or "-" when unknown
	Tenure       string `json:"tenure"`       // free text, e.g. "99 yrs lease commencing from 2019"
	District     string `json:"district"`     // two-digit postal district code
	PropertyType string `json:"propertyType"` // e.g. "Condominium", "Apartment"
	TypeOfSale   string `json:"typeOfSale"`   // "1" new sale, "2" sub sale, "3" resale
	NoOfUnits    string `json:"noOfUnits"`
}

// ProjectSaleGroup is one project's batch of raw sale transactions.
type ProjectSaleGroup struct {
	Project       string     `json:"project"`
	Street        string     `json:"street"`
	MarketSegment string     `json:"marketSegment"`
	Transactions  []RawSaleTx `json:"transaction"`
}

// RawRentalTx is one rental contract row from the upstream provider.
type RawRentalTx struct {
	LeaseDate     string `json:"leaseDate"` // "MMYY"
	AreaSqm       string `json:"areaSqm"`   // may be a range, e.g. "70-80"
	Rent          string `json:"rent"`      // monthly rent, decimal string
	Bedrooms      string `json:"noOfBedRoom"` // bedroom count label, may be "-" or empty
	District      string `json:"district"`
	NoOfContracts string `json:"noOfContracts"`
}

// ProjectRentalGroup is one project's batch of raw rental contracts.
type ProjectRentalGroup struct {
	Project       string        `json:"project"`
	Street        string        `json:"street"`
	MarketSegment string        `json:"marketSegment"`
	Rentals       []RawRentalTx `json:"rental"`
}
