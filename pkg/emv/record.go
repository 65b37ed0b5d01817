package emv

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawFieldID marks a placeholder entry holding a template value that could not be tokenized.
const RawFieldID = "??"

// Field is a top-level tag outside the recognized templates.
// DisplayValue is RawValue passed through the dictionary formatter, if any.
type Field struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Icon         string `json:"icon" yaml:"icon"`
	RawValue     string `json:"rawValue" yaml:"rawValue"`
	DisplayValue string `json:"displayValue" yaml:"displayValue"`
}

// SubField is a labeled entry of a merchant account template.
type SubField struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// MerchantAccount is a Merchant Account Information template (tags 02-51).
type MerchantAccount struct {
	ID        string       `json:"id" yaml:"id"`
	RawValue  string       `json:"rawValue" yaml:"rawValue"`
	GlobalID  string       `json:"globalId" yaml:"globalId"`
	Network   *NetworkInfo `json:"network,omitempty" yaml:"network,omitempty"`
	SubFields []SubField   `json:"subFields" yaml:"subFields"`
}

// TemplateField is an entry of the Additional Data (62) or Language (64) template.
type TemplateField struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
	Name  string `json:"name" yaml:"name"`
	Icon  string `json:"icon" yaml:"icon"`
}

// KeyInfo is the recipient key found in the first merchant account that carries one.
type KeyInfo struct {
	Value  string  `json:"value" yaml:"value"`
	Source string  `json:"source" yaml:"source"`
	Type   KeyType `json:"type" yaml:"type"`
}

// ParsedQR is the decoded form of a scanned payload. Optional summary values are nil when
// the corresponding tag is absent (or, for Amount, not a number).
type ParsedQR struct {
	Raw     string `json:"raw" yaml:"raw"`
	Payload string `json:"payload" yaml:"payload"`
	Source  Source `json:"source" yaml:"source"`

	Fields           []Field           `json:"fields" yaml:"fields"`
	MerchantAccounts []MerchantAccount `json:"merchantAccounts" yaml:"merchantAccounts"`
	AdditionalData   []TemplateField   `json:"additionalData" yaml:"additionalData"`
	Language         []TemplateField   `json:"merchantLang" yaml:"merchantLang"`
	Key              *KeyInfo          `json:"keyInfo,omitempty" yaml:"keyInfo,omitempty"`

	IsBreB    bool `json:"isBreB" yaml:"isBreB"`
	IsDynamic bool `json:"isDynamic" yaml:"isDynamic"`

	Amount       *decimal.Decimal `json:"amount,omitempty" yaml:"amount,omitempty"`
	Currency     *string          `json:"currency,omitempty" yaml:"currency,omitempty"`
	MerchantName *string          `json:"merchantName,omitempty" yaml:"merchantName,omitempty"`
	MerchantCity *string          `json:"merchantCity,omitempty" yaml:"merchantCity,omitempty"`
	Country      *string          `json:"country,omitempty" yaml:"country,omitempty"`
	CRC          *string          `json:"crc,omitempty" yaml:"crc,omitempty"`

	ConsumerPresented *ConsumerPresented `json:"consumerPresented,omitempty" yaml:"consumerPresented,omitempty"`

	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// IsEmpty reports whether nothing could be decoded from the input.
func (p *ParsedQR) IsEmpty() bool {
	return len(p.Fields) == 0 &&
		len(p.MerchantAccounts) == 0 &&
		len(p.AdditionalData) == 0 &&
		len(p.Language) == 0 &&
		p.ConsumerPresented == nil
}

// Field returns the first top-level field with the given id.
func (p *ParsedQR) Field(id string) (Field, bool) {
	for _, f := range p.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

func strPtr(s string) *string {
	return &s
}
