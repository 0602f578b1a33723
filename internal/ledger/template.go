package ledger

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

type BalanceSheetCategory string

const (
	SectionAssets            BalanceSheetCategory = "assets"
	SectionLiabilitiesEquity BalanceSheetCategory = "liabilities_equity"
)

func (c BalanceSheetCategory) Label() string {
	switch c {
	case SectionAssets:
		return "资产"
	case SectionLiabilitiesEquity:
		return "负债和所有者权益（或股东权益）"
	default:
		return string(c)
	}
}

// BalanceSheetLine is one template row. Section headers carry neither a
// line number nor a formula.
type BalanceSheetLine struct {
	Category   BalanceSheetCategory `json:"category" yaml:"-"`
	Item       string               `json:"item" yaml:"item"`
	LineNumber *int                 `json:"line_number,omitempty" yaml:"line,omitempty"`
	Formula    string               `json:"formula,omitempty" yaml:"formula,omitempty"`
}

type BalanceSheetTemplate struct {
	Name              string             `json:"name" yaml:"name"`
	Assets            []BalanceSheetLine `json:"assets" yaml:"assets"`
	LiabilitiesEquity []BalanceSheetLine `json:"liabilities_equity" yaml:"liabilities_equity"`
}

// Normalize stamps each line with its section and validates formulas.
func (t *BalanceSheetTemplate) Normalize() error {
	for i := range t.Assets {
		t.Assets[i].Category = SectionAssets
	}
	for i := range t.LiabilitiesEquity {
		t.LiabilitiesEquity[i].Category = SectionLiabilitiesEquity
	}
	for _, l := range t.Lines() {
		if _, err := ParseFormula(l.Formula); err != nil {
			return err
		}
		if l.LineNumber != nil && *l.LineNumber <= 0 {
			return Illegal(CodeMalformedFormula, fmt.Sprintf("line %d", *l.LineNumber))
		}
	}
	return nil
}

// Lines returns asset lines followed by liability and equity lines.
func (t BalanceSheetTemplate) Lines() []BalanceSheetLine {
	out := make([]BalanceSheetLine, 0, len(t.Assets)+len(t.LiabilitiesEquity))
	out = append(out, t.Assets...)
	return append(out, t.LiabilitiesEquity...)
}

func ParseBalanceSheetTemplate(data []byte) (BalanceSheetTemplate, error) {
	var t BalanceSheetTemplate
	if err := yaml.Unmarshal(data, &t); err != nil {
		return BalanceSheetTemplate{}, fmt.Errorf("parse balance sheet template: %w", err)
	}
	if err := t.Normalize(); err != nil {
		return BalanceSheetTemplate{}, err
	}
	return t, nil
}

func (t BalanceSheetTemplate) MarshalYAMLBytes() ([]byte, error) {
	return yaml.Marshal(t)
}

// BalanceSheetRow is an evaluated template line. Beginning and Ending are
// nil for lines without a formula.
type BalanceSheetRow struct {
	BalanceSheetLine
	Beginning *Amount `json:"beginning"`
	Ending    *Amount `json:"ending"`
}

type BalanceSheet struct {
	Template          string            `json:"template"`
	From              time.Time         `json:"from"`
	Until             time.Time         `json:"until"`
	Assets            []BalanceSheetRow `json:"assets"`
	LiabilitiesEquity []BalanceSheetRow `json:"liabilities_equity"`
}
