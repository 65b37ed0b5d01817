package emv

import "fmt"

// Formatter selects how a standard field's raw value is rendered for display.
type Formatter int

const (
	FormatNone Formatter = iota
	FormatStartupIndicator
	FormatCurrencyCode
	FormatAmount
)

// Apply renders value according to the formatter.
func (f Formatter) Apply(value string) string {
	switch f {
	case FormatStartupIndicator:
		switch value {
		case PointOfInitiationStatic:
			return value + " — Static (reusable)"
		case PointOfInitiationDynamic:
			return value + " — Dynamic (single use)"
		}
		return value
	case FormatCurrencyCode:
		if c, ok := LookupCurrency(value); ok {
			return fmt.Sprintf("%s — %s (%s)", value, c.Code, c.Name)
		}
		return value
	case FormatAmount:
		return "$ " + value
	default:
		return value
	}
}

// Point of Initiation Method (tag 01) values.
const (
	PointOfInitiationStatic  = "11"
	PointOfInitiationDynamic = "12"
)

// FieldDef describes a known tag: its display name, icon and display formatter.
type FieldDef struct {
	Name   string
	Icon   string
	Format Formatter
}

// Default labels for tags missing from the dictionaries.
const (
	defaultStandardIcon   = "📋"
	defaultAdditionalIcon = "📎"
	defaultLanguageIcon   = "🌐"
)

var standardFields = map[string]FieldDef{
	"00": {Name: "Payload Format Indicator", Icon: "⚙️"},
	"01": {Name: "Point of Initiation Method", Icon: "🔁", Format: FormatStartupIndicator},
	"52": {Name: "Merchant Category Code (MCC)", Icon: "🏪"},
	"53": {Name: "Transaction Currency", Icon: "💱", Format: FormatCurrencyCode},
	"54": {Name: "Transaction Amount", Icon: "💰", Format: FormatAmount},
	"55": {Name: "Tip or Convenience Indicator", Icon: "🎯"},
	"56": {Name: "Value of Convenience Fee Fixed", Icon: "💲"},
	"57": {Name: "Value of Convenience Fee Percentage", Icon: "📊"},
	"58": {Name: "Country Code", Icon: "🌍"},
	"59": {Name: "Merchant Name", Icon: "🏷️"},
	"60": {Name: "Merchant City", Icon: "🏙️"},
	"61": {Name: "Postal Code", Icon: "📮"},
	"63": {Name: "CRC", Icon: "🔐"},
	"80": {Name: "System Defined Data", Icon: "🖥️"},
	"81": {Name: "Reserved Data", Icon: "🔒"},
	"82": {Name: "Reserved Additional Data", Icon: "🔒"},
}

var additionalFields = map[string]FieldDef{
	"01": {Name: "Bill Number", Icon: "🧾"},
	"02": {Name: "Mobile Number", Icon: "📱"},
	"03": {Name: "Store Label", Icon: "🏬"},
	"04": {Name: "Loyalty Number", Icon: "🎁"},
	"05": {Name: "Reference Label", Icon: "#️⃣"},
	"06": {Name: "Customer Label", Icon: "👤"},
	"07": {Name: "Terminal Label", Icon: "🖥️"},
	"08": {Name: "Purpose of Transaction", Icon: "📝"},
	"09": {Name: "Additional Consumer Data Request", Icon: "🙋"},
	"10": {Name: "Merchant Tax ID", Icon: "🆔"},
}

var languageFields = map[string]FieldDef{
	"00": {Name: "Language Preference", Icon: "🌐"},
	"01": {Name: "Merchant Name — Alternate Language", Icon: "🏷️"},
	"02": {Name: "Merchant City — Alternate Language", Icon: "🏙️"},
}

// StandardField looks up a top-level tag, falling back to a generic definition.
func StandardField(id string) (FieldDef, bool) {
	if def, ok := standardFields[id]; ok {
		return def, true
	}
	return FieldDef{Name: "Field " + id, Icon: defaultStandardIcon}, false
}

// AdditionalField looks up a sub-tag of the Additional Data Field Template (62).
func AdditionalField(id string) (FieldDef, bool) {
	if def, ok := additionalFields[id]; ok {
		return def, true
	}
	return FieldDef{Name: "Additional Field " + id, Icon: defaultAdditionalIcon}, false
}

// LanguageField looks up a sub-tag of the Merchant Information Language Template (64).
func LanguageField(id string) (FieldDef, bool) {
	if def, ok := languageFields[id]; ok {
		return def, true
	}
	return FieldDef{Name: "Language Field " + id, Icon: defaultLanguageIcon}, false
}

// Currency is an ISO 4217 currency known to the decoder.
type Currency struct {
	Numeric string
	Code    string
	Symbol  string
	Name    string
}

var currencies = map[string]Currency{
	"170": {Numeric: "170", Code: "COP", Symbol: "$", Name: "Colombian Peso"},
	"840": {Numeric: "840", Code: "USD", Symbol: "US$", Name: "US Dollar"},
	"986": {Numeric: "986", Code: "BRL", Symbol: "R$", Name: "Brazilian Real"},
	"032": {Numeric: "032", Code: "ARS", Symbol: "$", Name: "Argentine Peso"},
}

// LookupCurrency resolves a numeric ISO 4217 code such as "170".
func LookupCurrency(numeric string) (Currency, bool) {
	c, ok := currencies[numeric]
	return c, ok
}
