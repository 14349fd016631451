package source

// Format is the encoding of a budget file, chosen by extension.
type Format string

// Supported budget file formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// RawBudget is the on-disk shape of a budget file. Frequency is the default
// for items that leave theirs out.
//
//	frequency: monthly
//	items:
//	  - name: Salary
//	    amount: 1000
//	    category: Wages & Salary
//	    type: income
type RawBudget struct {
	Frequency string    `yaml:"frequency" toml:"frequency" json:"frequency"`
	Items     []RawItem `yaml:"items" toml:"items" json:"items"`
}

// RawItem is one entry before validation. Frequency and Type are free text
// and resolved leniently ("Monthly", "yearly", "expenses").
type RawItem struct {
	ID        string  `yaml:"id" toml:"id" json:"id"`
	Name      string  `yaml:"name" toml:"name" json:"name"`
	Amount    float64 `yaml:"amount" toml:"amount" json:"amount"`
	Category  string  `yaml:"category" toml:"category" json:"category"`
	Frequency string  `yaml:"frequency" toml:"frequency" json:"frequency"`
	Type      string  `yaml:"type" toml:"type" json:"type"`
}

// DiscoveredFile is a budget file found while scanning.
type DiscoveredFile struct {
	Path   string
	Format Format
}
