// Package compatibility derives donor/recipient blood compatibility from a
// per-component rule table. All pairs are evaluated once when the engine is
// built; lookups only read the precomputed maps and are safe for concurrent use.
package compatibility

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"blood-donation/internal/domain"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule lists, for every recipient group and rh factor, the donor values it
// accepts for one component type.
type Rule struct {
	Groups map[domain.BloodGroup][]domain.BloodGroup `yaml:"groups"`
	Rh     map[domain.RhFactor][]domain.RhFactor     `yaml:"rh"`
}

type RuleTable map[domain.ComponentType]Rule

func (r Rule) accepts(donor, recipient domain.BloodType) bool {
	return containsGroup(r.Groups[recipient.Group], donor.Group) &&
		containsRh(r.Rh[recipient.Rh], donor.Rh)
}

// Matcher is the read-only view other services consume.
type Matcher interface {
	Donors(recipient domain.BloodType, component domain.ComponentType) ([]domain.BloodType, error)
	Recipients(donor domain.BloodType, component domain.ComponentType) ([]domain.BloodType, error)
	IsCompatible(donor, recipient domain.BloodType, component domain.ComponentType) bool
}

type Engine struct {
	donors     map[domain.ComponentType]map[domain.BloodType][]domain.BloodType
	recipients map[domain.ComponentType]map[domain.BloodType][]domain.BloodType
	pairs      []domain.BloodCompatibility
}

var _ Matcher = (*Engine)(nil)

// DefaultRules returns the embedded rule table.
func DefaultRules() (RuleTable, error) {
	return ParseRules(defaultRules)
}

// LoadRules reads a rule table from path, or the embedded table when path is empty.
func LoadRules(path string) (RuleTable, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compatibility rules: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (RuleTable, error) {
	var doc struct {
		Components RuleTable `yaml:"components"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse compatibility rules: %w", err)
	}
	if err := doc.Components.validate(); err != nil {
		return nil, err
	}
	return doc.Components, nil
}

func (t RuleTable) validate() error {
	for _, component := range domain.Components {
		rule, ok := t[component]
		if !ok {
			return domain.Validationf("compatibility rules missing component %s", component)
		}
		for _, bt := range domain.AllBloodTypes {
			if _, ok := rule.Groups[bt.Group]; !ok {
				return domain.Validationf("%s rules missing recipient group %s", component, bt.Group)
			}
			if _, ok := rule.Rh[bt.Rh]; !ok {
				return domain.Validationf("%s rules missing recipient rh %s", component, bt.Rh)
			}
		}
		for recipient, donors := range rule.Groups {
			if !recipient.IsValid() {
				return domain.Validationf("%s rules: unknown group %q", component, recipient)
			}
			for _, d := range donors {
				if !d.IsValid() {
					return domain.Validationf("%s rules: unknown donor group %q", component, d)
				}
			}
		}
		for recipient, donors := range rule.Rh {
			if !recipient.IsValid() {
				return domain.Validationf("%s rules: unknown rh %q", component, recipient)
			}
			for _, d := range donors {
				if !d.IsValid() {
					return domain.Validationf("%s rules: unknown donor rh %q", component, d)
				}
			}
		}
	}
	for component := range t {
		if !component.IsValid() {
			return domain.Validationf("compatibility rules: unknown component %q", component)
		}
	}
	return nil
}

// New evaluates every donor/recipient pair for every component in rules.
func New(rules RuleTable) (*Engine, error) {
	if err := rules.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		donors:     make(map[domain.ComponentType]map[domain.BloodType][]domain.BloodType, len(domain.Components)),
		recipients: make(map[domain.ComponentType]map[domain.BloodType][]domain.BloodType, len(domain.Components)),
	}
	for _, component := range domain.Components {
		rule := rules[component]
		byRecipient := make(map[domain.BloodType][]domain.BloodType, len(domain.AllBloodTypes))
		byDonor := make(map[domain.BloodType][]domain.BloodType, len(domain.AllBloodTypes))

		for _, recipient := range domain.AllBloodTypes {
			for _, donor := range domain.AllBloodTypes {
				if !rule.accepts(donor, recipient) {
					continue
				}
				byRecipient[recipient] = append(byRecipient[recipient], donor)
				e.pairs = append(e.pairs, domain.BloodCompatibility{
					DonorGroup:     donor.Group,
					DonorRh:        donor.Rh,
					RecipientGroup: recipient.Group,
					RecipientRh:    recipient.Rh,
					ComponentType:  component,
				})
			}
		}
		// Second pass keeps recipient lists in registry order too.
		for _, donor := range domain.AllBloodTypes {
			for _, recipient := range domain.AllBloodTypes {
				if rule.accepts(donor, recipient) {
					byDonor[donor] = append(byDonor[donor], recipient)
				}
			}
		}

		e.donors[component] = byRecipient
		e.recipients[component] = byDonor
	}
	return e, nil
}

// NewDefault builds an engine from the embedded rule table.
func NewDefault() (*Engine, error) {
	rules, err := DefaultRules()
	if err != nil {
		return nil, err
	}
	return New(rules)
}

// Donors returns the donor types a recipient can receive, in registry order.
func (e *Engine) Donors(recipient domain.BloodType, component domain.ComponentType) ([]domain.BloodType, error) {
	return lookup(e.donors, recipient, component)
}

// Recipients returns the recipient types a donor can give to, in registry order.
func (e *Engine) Recipients(donor domain.BloodType, component domain.ComponentType) ([]domain.BloodType, error) {
	return lookup(e.recipients, donor, component)
}

func (e *Engine) IsCompatible(donor, recipient domain.BloodType, component domain.ComponentType) bool {
	for _, d := range e.donors[component][recipient] {
		if d == donor {
			return true
		}
	}
	return false
}

// Pairs returns every compatible (donor, recipient, component) tuple.
func (e *Engine) Pairs() []domain.BloodCompatibility {
	out := make([]domain.BloodCompatibility, len(e.pairs))
	copy(out, e.pairs)
	return out
}

// Components returns the component types the engine has rules for.
func (e *Engine) Components() []domain.ComponentType {
	out := make([]domain.ComponentType, 0, len(e.donors))
	for _, c := range domain.Components {
		if _, ok := e.donors[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func lookup(table map[domain.ComponentType]map[domain.BloodType][]domain.BloodType, bt domain.BloodType, component domain.ComponentType) ([]domain.BloodType, error) {
	if err := bt.Validate(); err != nil {
		return nil, err
	}
	byType, ok := table[component]
	if !ok {
		return nil, domain.Validationf("unknown component type %q", component)
	}
	types := byType[bt]
	out := make([]domain.BloodType, len(types))
	copy(out, types)
	return out, nil
}

func containsGroup(list []domain.BloodGroup, g domain.BloodGroup) bool {
	for _, v := range list {
		if v == g {
			return true
		}
	}
	return false
}

func containsRh(list []domain.RhFactor, r domain.RhFactor) bool {
	for _, v := range list {
		if v == r {
			return true
		}
	}
	return false
}
