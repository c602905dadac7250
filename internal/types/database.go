package types

// MySQLFilter selects journal rows. Query terms are ANDed together.
type MySQLFilter struct {
	Query  []MySQLQuery `json:"query"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// MySQLQuery compares one column against a bound value. Op is one of
// =, !=, <, <=, >, >=, LIKE.
type MySQLQuery struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Query  string `json:"query"`
}
