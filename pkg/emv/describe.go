package emv

import (
	"fmt"
	"strings"

	"github.com/gregLibert/emv-qr/pkg/tlv"
)

// Describe generates a human-readable report of the decoded payload.
func (p *ParsedQR) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EMV QR PAYLOAD ===")

	tlv.WriteLines(&sb, p.summaryLines())

	var lines []string
	for _, f := range p.Fields {
		name := fmt.Sprintf("%s (%s)", f.Name, f.ID)
		lines = append(lines, tlv.Line("Field", name, f.DisplayValue))
	}
	tlv.WriteLines(&sb, lines)

	for _, acc := range p.MerchantAccounts {
		prefix := "Account[" + acc.ID + "]"
		var accLines []string
		if acc.Network != nil {
			accLines = append(accLines, tlv.Line(prefix, "Network", acc.Network.Name))
		}
		for _, sf := range acc.SubFields {
			accLines = append(accLines, tlv.Line(prefix, fmt.Sprintf("%s (%s)", sf.Label, sf.ID), sf.Value))
		}
		tlv.WriteLines(&sb, accLines)
	}

	tlv.WriteLines(&sb, templateLines("Additional", p.AdditionalData))
	tlv.WriteLines(&sb, templateLines("Language", p.Language))

	if p.ConsumerPresented != nil {
		sb.WriteString("\n")
		sb.WriteString(p.ConsumerPresented.Describe())
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (p *ParsedQR) summaryLines() []string {
	var lines []string
	add := func(name, value string) {
		lines = append(lines, tlv.Line("Summary", name, value))
	}

	add("Source", string(p.Source))
	if p.IsDynamic {
		add("Type", "Dynamic")
	} else {
		add("Type", "Static")
	}
	if p.IsBreB {
		add("Bre-B", "yes")
	}
	if p.MerchantName != nil {
		add("Merchant", *p.MerchantName)
	}
	if p.MerchantCity != nil {
		add("City", *p.MerchantCity)
	}
	if p.Country != nil {
		add("Country", *p.Country)
	}
	if p.Amount != nil {
		amount := p.Amount.String()
		if p.Currency != nil {
			if c, ok := LookupCurrency(*p.Currency); ok {
				amount += " " + c.Code
			}
		}
		add("Amount", amount)
	}
	if p.Key != nil {
		add("Key", fmt.Sprintf("%s [%s] via %s", p.Key.Value, p.Key.Type, p.Key.Source))
	}
	if p.CRC != nil {
		add("CRC", *p.CRC)
	}
	return lines
}

func templateLines(prefix string, fields []TemplateField) []string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, tlv.Line(prefix, fmt.Sprintf("%s (%s)", f.Name, f.ID), f.Value))
	}
	return lines
}
