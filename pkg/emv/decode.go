/*
Package emv decodes EMVCo merchant-presented QR payloads, as used by Latin-American
instant payment networks (Bre-B in Colombia, PIX in Brazil) and card schemes.

# Payload Structure

A payload is a flat sequence of text TLV entries (2-char id, 2-digit length, value):

  - 00      Payload Format Indicator (always "01", so payloads start with "0002")
  - 01      Point of Initiation Method ("11" static, "12" dynamic)
  - 02-51   Merchant Account Information templates (nested TLV, sub-tag 00 = global id)
  - 52-61   Merchant and transaction data (MCC, currency, amount, country, name, city...)
  - 62      Additional Data Field template (nested TLV)
  - 63      CRC
  - 64      Merchant Information Language template (nested TLV)

# Decoding

Decode never fails. Scanned text is first normalized (URL/deeplink query parameters and
base64 are unwrapped), then tokenized; malformed trailing data is dropped and unknown tags
get generic labels. An input that cannot be decoded yields a record with empty
collections, which ParsedQR.IsEmpty reports.

	qr := emv.Decode(scanned)
	if qr.IsEmpty() {
	    return fmt.Errorf("not an EMV QR code")
	}
	if qr.Key != nil {
	    fmt.Printf("Pay to %s (%s via %s)\n", qr.Key.Value, qr.Key.Type, qr.Key.Source)
	}
	fmt.Println(qr.Describe())

The CRC (tag 63) is exposed verbatim and never verified.
*/
package emv

import (
	"fmt"
	"strings"
	"time"

	"github.com/gregLibert/emv-qr/pkg/tlv"
	"github.com/shopspring/decimal"
)

// Template tags.
const (
	TagAdditionalData   = "62"
	TagLanguageTemplate = "64"

	merchantAccountMin = 2
	merchantAccountMax = 51
)

// Logger receives diagnostics. *logs.BeeLogger from beego satisfies it.
type Logger interface {
	Debug(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger routes diagnostics to l.
func WithLogger(l Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.log = l
		}
	}
}

// WithClock overrides the clock used for ParsedQR.Timestamp.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) {
		if now != nil {
			d.now = now
		}
	}
}

// Decoder decodes payloads. It holds no per-call state and is safe for concurrent use.
type Decoder struct {
	log Logger
	now func() time.Time
}

// NewDecoder creates a Decoder. Without options it logs nothing.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{log: nopLogger{}, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDecoder = NewDecoder()

// Decode decodes raw with a silent Decoder.
func Decode(raw string) *ParsedQR {
	return defaultDecoder.Decode(raw)
}

// Decode turns scanned text into a ParsedQR. It never fails.
func (d *Decoder) Decode(raw string) *ParsedQR {
	n := d.normalize(raw)

	res := &ParsedQR{
		Raw:       strings.TrimSpace(raw),
		Payload:   n.payload,
		Source:    n.source,
		Timestamp: d.now(),
	}

	if n.binary != nil && n.binary[0] == CPMFormatTag {
		if cpm, err := ParseConsumerPresented(n.binary); err == nil {
			res.ConsumerPresented = cpm
			res.Source = SourceConsumer
		} else {
			d.log.Debug("[emv] base64 payload is not consumer-presented: %v", err)
		}
	}

	var entries []tlv.Entry
	if res.ConsumerPresented == nil {
		entries = d.scan(n.payload, "payload")
	}
	d.log.Debug("[emv] %d top-level entries: %s", len(entries), entrySummary(entries))

	for _, e := range entries {
		if id, ok := tlv.IsNumericID(e.ID); ok && id >= merchantAccountMin && id <= merchantAccountMax {
			d.merchantAccount(e, res)
			continue
		}

		switch e.ID {
		case TagAdditionalData:
			res.AdditionalData = d.additionalData(e)
		case TagLanguageTemplate:
			res.Language = d.languageTemplate(e)
		default:
			standardField(e, res)
		}
	}

	if len(entries) == 0 && n.payload != "" && res.ConsumerPresented == nil {
		d.log.Warn("[emv] no TLV entries decoded from %q", preview(n.payload, 100))
	}

	return res
}

// Normalize is the logging counterpart of the package-level Normalize.
func (d *Decoder) Normalize(raw string) string {
	return d.normalize(raw).payload
}

func (d *Decoder) normalize(raw string) normalized {
	n := normalize(raw)
	switch n.source {
	case SourceURLParam:
		d.log.Debug("[emv] payload extracted from URL parameter %q", n.param)
	case SourceURLScan:
		d.log.Debug("[emv] payload extracted from URL parameter %q (fallback)", n.param)
	case SourceBase64:
		d.log.Debug("[emv] payload extracted from base64")
	}
	d.log.Debug("[emv] payload to decode: %s", preview(n.payload, 80))
	return n
}

func (d *Decoder) scan(data, context string) []tlv.Entry {
	res := tlv.Scan(data)
	if res.Break != nil {
		d.log.Warn("[emv] %s: %v", context, res.Break)
	}
	return res.Entries
}

func (d *Decoder) merchantAccount(e tlv.Entry, res *ParsedQR) {
	subs := d.scan(e.Value, "merchant account "+e.ID)

	globalID := ""
	for _, s := range subs {
		if s.ID == "00" {
			globalID = s.Value
			break
		}
	}

	network := DetectNetwork(globalID)
	if IsBreBGlobalID(globalID) {
		res.IsBreB = true
	}

	account := MerchantAccount{
		ID:       e.ID,
		RawValue: e.Value,
		GlobalID: globalID,
		Network:  network,
	}

	for _, s := range subs {
		account.SubFields = append(account.SubFields, SubField{ID: s.ID, Value: s.Value, Label: accountLabel(s.ID)})
	}

	if len(subs) == 0 && e.Value != "" {
		account.SubFields = []SubField{{ID: RawFieldID, Value: e.Value, Label: "Raw Value"}}
	}

	if res.Key == nil {
		for _, s := range subs {
			if s.ID == "00" || s.Value == "" {
				continue
			}
			source := "Account " + e.ID
			if network != nil {
				source = network.Name
			}
			res.Key = &KeyInfo{Value: s.Value, Source: source, Type: DetectKeyType(s.Value)}
			break
		}
	}

	res.MerchantAccounts = append(res.MerchantAccounts, account)
}

func accountLabel(id string) string {
	switch id {
	case "00":
		return "Global Identifier"
	case "01":
		return "Key/Recipient"
	case "02":
		return "Access Data"
	default:
		return "Field " + id
	}
}

func (d *Decoder) additionalData(e tlv.Entry) []TemplateField {
	subs := d.scan(e.Value, "additional data")

	fields := make([]TemplateField, 0, len(subs))
	for _, s := range subs {
		def, _ := AdditionalField(s.ID)
		fields = append(fields, TemplateField{ID: s.ID, Value: s.Value, Name: def.Name, Icon: def.Icon})
	}

	if len(subs) == 0 && e.Value != "" {
		fields = []TemplateField{{ID: RawFieldID, Value: e.Value, Name: "Additional Data (raw)", Icon: defaultAdditionalIcon}}
	}
	return fields
}

func (d *Decoder) languageTemplate(e tlv.Entry) []TemplateField {
	subs := d.scan(e.Value, "language template")

	fields := make([]TemplateField, 0, len(subs))
	for _, s := range subs {
		def, _ := LanguageField(s.ID)
		fields = append(fields, TemplateField{ID: s.ID, Value: s.Value, Name: def.Name, Icon: def.Icon})
	}
	return fields
}

func standardField(e tlv.Entry, res *ParsedQR) {
	def, _ := StandardField(e.ID)

	res.Fields = append(res.Fields, Field{
		ID:           e.ID,
		Name:         def.Name,
		Icon:         def.Icon,
		RawValue:     e.Value,
		DisplayValue: def.Format.Apply(e.Value),
	})

	switch e.ID {
	case "01":
		res.IsDynamic = e.Value == PointOfInitiationDynamic
	case "54":
		res.Amount = nil
		if amount, err := decimal.NewFromString(e.Value); err == nil {
			res.Amount = &amount
		}
	case "53":
		res.Currency = strPtr(e.Value)
	case "59":
		res.MerchantName = strPtr(e.Value)
	case "60":
		res.MerchantCity = strPtr(e.Value)
	case "58":
		res.Country = strPtr(e.Value)
	case "63":
		res.CRC = strPtr(e.Value)
	}
}

func entrySummary(entries []tlv.Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s(%d)", e.ID, e.Len)
	}
	return strings.Join(parts, " ")
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
