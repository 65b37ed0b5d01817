package emv

import (
	"fmt"
	"strings"

	"github.com/gregLibert/emv-qr/pkg/bits"
	"github.com/gregLibert/emv-qr/pkg/tlv"
	"github.com/juju/errors"
	"github.com/moov-io/bertlv"
)

// CONSUMER-PRESENTED MODE (CPM):
// In CPM the payer's wallet displays the QR and the merchant scans it. The payload is
// BER-TLV (not the fixed-width text encoding) and is base64 encoded into the QR:
//
//   85 Payload Format Indicator ("CPV01")
//   61 Application Template (one or more)
//   62 Common Data Template (optional)
//
// Application and common data templates may nest a '63' Application Specific
// Transparent Template carrying the cryptogram data.

// CPMFormatTag is the BER tag that opens every consumer-presented payload.
const CPMFormatTag = 0x85

// CPMFormatPrefix opens the Payload Format Indicator value ("CPV01").
const CPMFormatPrefix = "CPV"

// ConsumerPresented is a decoded consumer-presented payload.
type ConsumerPresented struct {
	PayloadFormatIndicator FormatIndicator       `tlv:"85" fmt:"ascii" json:"payloadFormatIndicator" yaml:"payloadFormatIndicator"`
	Applications           []ApplicationTemplate `tlv:"61" json:"applications" yaml:"applications"`
	CommonData             *CommonDataTemplate   `tlv:"62" json:"commonData,omitempty" yaml:"commonData,omitempty"`

	Unknown []bertlv.TLV `tlv:",unknown" json:"unknown,omitempty" yaml:"unknown,omitempty"`
}

// FormatIndicator is the Payload Format Indicator (Tag '85'). Only "CPV" values are accepted.
type FormatIndicator []byte

// UnmarshalTLV implements tlv.Unmarshaler.
func (f *FormatIndicator) UnmarshalTLV(data []byte) error {
	if !strings.HasPrefix(string(data), CPMFormatPrefix) {
		return errors.NotValidf("payload format indicator %q", data)
	}
	*f = append((*f)[:0], data...)
	return nil
}

// ApplicationTemplate (Tag '61') describes one payment application offered by the wallet.
type ApplicationTemplate struct {
	ADFName                 []byte               `tlv:"4F" json:"adfName,omitempty" yaml:"adfName,omitempty"`
	ApplicationLabel        []byte               `tlv:"50" fmt:"ascii" json:"applicationLabel,omitempty" yaml:"applicationLabel,omitempty"`
	Track2EquivalentData    []byte               `tlv:"57" json:"track2,omitempty" yaml:"track2,omitempty"`
	PAN                     []byte               `tlv:"5A" fmt:"digits" json:"pan,omitempty" yaml:"pan,omitempty"`
	CardholderName          []byte               `tlv:"5F20" fmt:"ascii" json:"cardholderName,omitempty" yaml:"cardholderName,omitempty"`
	LanguagePreference      []byte               `tlv:"5F2D" fmt:"ascii" json:"languagePreference,omitempty" yaml:"languagePreference,omitempty"`
	IssuerURL               []byte               `tlv:"5F50" fmt:"ascii" json:"issuerUrl,omitempty" yaml:"issuerUrl,omitempty"`
	ApplicationVersion      []byte               `tlv:"9F08" fmt:"int" json:"applicationVersion,omitempty" yaml:"applicationVersion,omitempty"`
	TokenRequestorID        []byte               `tlv:"9F19" json:"tokenRequestorId,omitempty" yaml:"tokenRequestorId,omitempty"`
	PaymentAccountReference []byte               `tlv:"9F24" fmt:"ascii" json:"paymentAccountReference,omitempty" yaml:"paymentAccountReference,omitempty"`
	Last4DigitsOfPAN        []byte               `tlv:"9F25" fmt:"digits" json:"last4,omitempty" yaml:"last4,omitempty"`
	Transparent             *TransparentTemplate `tlv:"63" json:"transparent,omitempty" yaml:"transparent,omitempty"`

	Unknown []bertlv.TLV `tlv:",unknown" json:"unknown,omitempty" yaml:"unknown,omitempty"`
}

// CommonDataTemplate (Tag '62') holds data shared by all applications. It allows the
// same tags as an application template.
type CommonDataTemplate ApplicationTemplate

// TransparentTemplate (Tag '63') carries the application cryptogram and related data.
type TransparentTemplate struct {
	ApplicationCryptogram         []byte `tlv:"9F26" json:"applicationCryptogram,omitempty" yaml:"applicationCryptogram,omitempty"`
	CryptogramInformationData     []byte `tlv:"9F27" json:"cid,omitempty" yaml:"cid,omitempty"`
	IssuerApplicationData         []byte `tlv:"9F10" json:"iad,omitempty" yaml:"iad,omitempty"`
	ApplicationTransactionCounter []byte `tlv:"9F36" fmt:"int" json:"atc,omitempty" yaml:"atc,omitempty"`
	ApplicationInterchangeProfile []byte `tlv:"82" json:"aip,omitempty" yaml:"aip,omitempty"`
	UnpredictableNumber           []byte `tlv:"9F37" json:"unpredictableNumber,omitempty" yaml:"unpredictableNumber,omitempty"`

	Unknown []bertlv.TLV `tlv:",unknown" json:"unknown,omitempty" yaml:"unknown,omitempty"`
}

// ParseConsumerPresented interprets decoded QR bytes as a consumer-presented payload.
func ParseConsumerPresented(data []byte) (*ConsumerPresented, error) {
	if len(data) == 0 {
		return nil, errors.NotValidf("empty consumer-presented payload")
	}

	packets, err := tlv.Decode(data)
	if err != nil {
		return nil, errors.NewNotValid(err, "consumer-presented payload")
	}

	// The payload must open with the Payload Format Indicator
	if len(packets) == 0 || !strings.EqualFold(packets[0].Tag, "85") {
		return nil, errors.NotValidf("payload without Payload Format Indicator (Tag 85)")
	}

	cpm := &ConsumerPresented{}
	if err := tlv.UnmarshalFromPackets(packets, cpm); err != nil {
		return nil, errors.Annotate(err, "failed to map consumer-presented payload")
	}

	return cpm, nil
}

// AIP byte 1 capabilities (EMV Book 3, Annex C1).
var aipCapabilities = []bits.Flag{
	{Bit: 7, Name: "SDA supported"},
	{Bit: 6, Name: "DDA supported"},
	{Bit: 5, Name: "Cardholder verification supported"},
	{Bit: 4, Name: "Terminal risk management required"},
	{Bit: 3, Name: "Issuer authentication supported"},
	{Bit: 1, Name: "CDA supported"},
}

// DescribeAIP lists the capabilities flagged in an Application Interchange Profile.
func DescribeAIP(aip []byte) []string {
	if len(aip) == 0 {
		return nil
	}
	return bits.Names(aip[0], aipCapabilities)
}

// Cryptogram types, bits 8-7 of the Cryptogram Information Data.
var cryptogramTypes = [...]string{"AAC", "TC", "ARQC", "RFU"}

// DescribeCID returns the cryptogram type announced by the Cryptogram Information Data
// (Tag '9F27'), or "" when absent.
func DescribeCID(cid []byte) string {
	if len(cid) == 0 {
		return ""
	}
	return cryptogramTypes[bits.GetRange(cid[0], 8, 7)]
}

// Describe generates a report of every application and template in the payload.
func (c *ConsumerPresented) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EMV CONSUMER-PRESENTED QR ===")

	tlv.WriteStructFields(&sb, "CPM", c)

	for i, app := range c.Applications {
		prefix := fmt.Sprintf("App[%d]", i+1)
		writeApplication(&sb, prefix, &app)
	}

	if c.CommonData != nil {
		writeApplication(&sb, "Common", (*ApplicationTemplate)(c.CommonData))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func writeApplication(sb *strings.Builder, prefix string, app *ApplicationTemplate) {
	tlv.WriteStructFields(sb, prefix, app)

	if app.Transparent == nil {
		return
	}
	tlv.WriteStructFields(sb, prefix+".Transparent", app.Transparent)

	var lines []string
	if cid := DescribeCID(app.Transparent.CryptogramInformationData); cid != "" {
		lines = append(lines, tlv.Line(prefix+".Transparent", "Cryptogram Type", cid))
	}
	if caps := DescribeAIP(app.Transparent.ApplicationInterchangeProfile); len(caps) > 0 {
		lines = append(lines, tlv.Line(prefix+".Transparent", "AIP Capabilities", strings.Join(caps, ", ")))
	}
	tlv.WriteLines(sb, lines)
}
