package ledger

import (
	"embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed charts/*.yaml
var chartFS embed.FS

// Standard describes an accounting standard: its chart of accounts and the
// accounts the period-end generators post to.
type Standard struct {
	Name string `json:"name"`
	// ClosingPrefixes select the cost and profit-and-loss accounts zeroed by
	// month-end closing.
	ClosingPrefixes         []string `json:"closing_prefixes"`
	ProfitAccount           string   `json:"profit_account"`
	RetainedEarningsAccount string   `json:"retained_earnings_account"`
	ExchangeClearingAccount string   `json:"exchange_clearing_account"`

	chartFile    string
	templateFile string
}

const (
	StandardEnterprise2018 = "一般企业会计准则（2018）"
	StandardSmallBusiness  = "小企业会计准则"
)

var Standards = []Standard{
	{
		Name:                    StandardEnterprise2018,
		ClosingPrefixes:         []string{"5", "6"},
		ProfitAccount:           "4103",
		RetainedEarningsAccount: "4104.01",
		ExchangeClearingAccount: "6603.02",
		chartFile:               "charts/enterprise2018.yaml",
		templateFile:            "charts/enterprise2018_balance_sheet.yaml",
	},
	{
		Name:                    StandardSmallBusiness,
		ClosingPrefixes:         []string{"4", "5"},
		ProfitAccount:           "3103",
		RetainedEarningsAccount: "3104.01",
		ExchangeClearingAccount: "5603.02",
		chartFile:               "charts/small_business.yaml",
		templateFile:            "charts/small_business_balance_sheet.yaml",
	},
}

func LookupStandard(name string) (Standard, error) {
	for _, s := range Standards {
		if s.Name == name {
			return s, nil
		}
	}
	return Standard{}, Illegal(CodeInvalidStandard, name)
}

// IsClosingAccount reports whether code belongs to a category zeroed at
// month end.
func (s Standard) IsClosingAccount(code string) bool {
	for _, p := range s.ClosingPrefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

// ChartAccount is one account of a standard chart.
type ChartAccount struct {
	Code          string    `yaml:"code"`
	Name          string    `yaml:"name"`
	MajorCategory string    `yaml:"-"`
	Direction     Direction `yaml:"direction"`
}

type chartSection struct {
	Category string         `yaml:"category"`
	Accounts []ChartAccount `yaml:"accounts"`
}

// Chart returns the standard's accounts with every parent before its children.
func (s Standard) Chart() ([]ChartAccount, error) {
	data, err := chartFS.ReadFile(s.chartFile)
	if err != nil {
		return nil, fmt.Errorf("read chart %s: %w", s.chartFile, err)
	}
	var sections []chartSection
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse chart %s: %w", s.chartFile, err)
	}

	var out []ChartAccount
	for _, sec := range sections {
		for _, a := range sec.Accounts {
			a.MajorCategory = sec.Category
			if !ValidCode(a.Code) || !a.Direction.Valid() {
				return nil, fmt.Errorf("chart %s: bad account %q", s.chartFile, a.Code)
			}
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b ChartAccount) int {
		return CompareCodes(a.Code, b.Code)
	})
	return out, nil
}

// DefaultBalanceSheetTemplate returns the template seeded into new books.
func (s Standard) DefaultBalanceSheetTemplate() (BalanceSheetTemplate, error) {
	data, err := chartFS.ReadFile(s.templateFile)
	if err != nil {
		return BalanceSheetTemplate{}, fmt.Errorf("read template %s: %w", s.templateFile, err)
	}
	return ParseBalanceSheetTemplate(data)
}
