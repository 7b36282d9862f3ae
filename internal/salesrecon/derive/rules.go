package derive

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRules is returned by LoadRules when the file decodes to an unusable rule set.
var ErrInvalidRules = errors.New("derive: invalid rules")

// VIPRules holds the VIP-discount bucket codes.
type VIPRules struct {
	F3Service         string `yaml:"f3_service"`
	F3Merchandise     string `yaml:"f3_merchandise"`
	Service           string `yaml:"service"`
	Voucher           string `yaml:"voucher"`
	Merchandise       string `yaml:"merchandise"`
	VoucherItemPrefix string `yaml:"voucher_item_prefix"`
	VoucherItemMarker string `yaml:"voucher_item_marker"`
}

// VoucherRules holds the voucher labels and the sources that settle through
// a marketplace-level reserve voucher.
type VoucherRules struct {
	MainCode       string   `yaml:"main_code"`
	ReserveCode    string   `yaml:"reserve_code"`
	ReserveSources []string `yaml:"reserve_sources"`
}

// Rules are the literals used by the derivation functions.
type Rules struct {
	TaxCode            string            `yaml:"tax_code"`
	DebitAccount       string            `yaml:"debit_account"`
	PromoFlag          string            `yaml:"promo_flag"`
	InvestmentGiftCode string            `yaml:"investment_gift_code"`
	GiveProductMarker  string            `yaml:"give_product_marker"`
	EcoinCode          string            `yaml:"ecoin_code"`
	VIP                VIPRules          `yaml:"vip"`
	Voucher            VoucherRules      `yaml:"voucher"`
	BatchSuffix        map[string]int    `yaml:"batch_suffix"`
	DefaultBatchSuffix int               `yaml:"default_batch_suffix"`
	Brands             map[string]string `yaml:"brands"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		TaxCode:            "10",
		DebitAccount:       "131",
		PromoFlag:          "1",
		InvestmentGiftCode: "DAUTU",
		GiveProductMarker:  "TANGSP",
		EcoinCode:          "ECOIN",
		VIP: VIPRules{
			F3Service:         "F3VIPDV",
			F3Merchandise:     "F3VIPHH",
			Service:           "VIPDV",
			Voucher:           "VIPVC",
			Merchandise:       "VIPHH",
			VoucherItemPrefix: "VC",
			VoucherItemMarker: "VOUCHER",
		},
		Voucher: VoucherRules{
			MainCode:       "VOUCHER",
			ReserveCode:    "VOUCHER_DP",
			ReserveSources: []string{"SHOPEE"},
		},
		BatchSuffix: map[string]int{
			"TPCN": 8,
			"SKIN": 4,
			"GIFT": 4,
		},
		DefaultBatchSuffix: 4,
	}
}

// LoadRules reads a YAML file over the defaults. Keys missing from the file
// keep their default; map entries are added to the default maps. An empty
// path returns DefaultRules.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("derive: read rules: %w", err)
	}
	return ParseRules(raw)
}

// ParseRules decodes YAML over the defaults.
func ParseRules(raw []byte) (Rules, error) {
	rules := DefaultRules()
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("derive: decode rules: %w", err)
	}
	if err := rules.normalize(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r *Rules) normalize() error {
	if r.DefaultBatchSuffix <= 0 {
		return fmt.Errorf("%w: default_batch_suffix must be positive", ErrInvalidRules)
	}
	suffix := make(map[string]int, len(r.BatchSuffix))
	for productType, n := range r.BatchSuffix {
		if n <= 0 {
			return fmt.Errorf("%w: batch_suffix %q must be positive", ErrInvalidRules, productType)
		}
		suffix[strings.ToUpper(strings.TrimSpace(productType))] = n
	}
	r.BatchSuffix = suffix
	if len(r.Brands) > 0 {
		brands := make(map[string]string, len(r.Brands))
		for company, brand := range r.Brands {
			brands[strings.ToUpper(strings.TrimSpace(company))] = strings.ToLower(strings.TrimSpace(brand))
		}
		r.Brands = brands
	}
	r.GiveProductMarker = strings.ToUpper(strings.TrimSpace(r.GiveProductMarker))
	r.VIP.VoucherItemPrefix = strings.ToUpper(strings.TrimSpace(r.VIP.VoucherItemPrefix))
	r.VIP.VoucherItemMarker = strings.ToUpper(strings.TrimSpace(r.VIP.VoucherItemMarker))
	return nil
}

func (r Rules) batchSuffixLen(productType string) int {
	if n, ok := r.BatchSuffix[strings.ToUpper(strings.TrimSpace(productType))]; ok {
		return n
	}
	return r.DefaultBatchSuffix
}

func (r Rules) isReserveSource(source string) bool {
	source = strings.TrimSpace(source)
	for _, s := range r.Voucher.ReserveSources {
		if strings.EqualFold(s, source) {
			return true
		}
	}
	return false
}
