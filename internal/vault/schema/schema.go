// Package schema describes the eight vault domains as data: section layout,
// required fields, selector sentinels, and section-routing rules. One engine
// in the service layer interprets these descriptors instead of eight copies
// of the same controller.
package schema

import (
	"regexp"
	"strings"

	"keepsafe/internal/vault/models"
	dErrors "keepsafe/pkg/domain-errors"
)

// Sentinel placeholder values submitted by select inputs that were never
// changed from their default option. Treated as absent.
var sentinels = map[string]struct{}{
	"select type":  {},
	"not selected": {},
	"select":       {},
}

// IsSentinel reports whether value is a placeholder rather than a real
// selection.
func IsSentinel(value string) bool {
	_, ok := sentinels[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// Domain describes one vault domain. Sections is ordered; the order defines
// the cumulative offsets used for positional file backfill and must match
// the order clients render their forms in.
type Domain struct {
	Name       string
	PayloadKey string
	Sections   []string

	// Route picks the target section for a new line item.
	Route func(item models.LineItem) string

	// Validate enforces the domain's required-field rules on AddLineItem.
	Validate func(item models.LineItem) error

	// FileRequired rejects new line items without an attachment URL.
	FileRequired bool

	// StrictDelete selects the owner+id single-query delete path. Domains
	// without it fetch the owner's record and filter sections in memory.
	StrictDelete bool

	// AllowRecordDelete permits removing the whole per-owner record.
	AllowRecordDelete bool
}

var aadharRe = regexp.MustCompile(`^[0-9]{12}$`)

var governmentDocTypes = map[string]struct{}{
	"aadhar":          {},
	"pan":             {},
	"passport":        {},
	"voter id":        {},
	"driving license": {},
}

var domains = []*Domain{
	{
		Name:       "identity",
		PayloadKey: "identityDocuments",
		Sections:   []string{"Government", "Other"},
		Route: func(item models.LineItem) string {
			if _, ok := governmentDocTypes[strings.ToLower(item.Field("documentType"))]; ok {
				return "Government"
			}
			return "Other"
		},
		Validate: func(item models.LineItem) error {
			docType := item.Field("documentType")
			if err := requireSelection("documentType", docType); err != nil {
				return err
			}
			if strings.EqualFold(docType, "Aadhar") && !aadharRe.MatchString(item.Field("documentNumber")) {
				return dErrors.New(dErrors.CodeBadRequest, "Aadhar must be a 12-digit number")
			}
			return nil
		},
		FileRequired: true,
		StrictDelete: true,
	},
	{
		Name:       "financial",
		PayloadKey: "financialAssets",
		Sections:   []string{"Banking", "Investments"},
		Route: func(item models.LineItem) string {
			if item.Field("bankName") != "" {
				return "Banking"
			}
			return "Investments"
		},
		Validate: func(item models.LineItem) error {
			bank := item.Field("bankName")
			fund := item.Field("fundName")
			if bank == "" && fund == "" {
				return dErrors.New(dErrors.CodeBadRequest, "bankName or fundName is required")
			}
			if bank != "" && item.Field("accountNumber") == "" {
				return dErrors.New(dErrors.CodeBadRequest, "accountNumber is required for bank accounts")
			}
			return nil
		},
		FileRequired: true,
		StrictDelete: true,
	},
	{
		Name:       "property",
		PayloadKey: "propertyDetails",
		Sections:   []string{"PropertyDetails", "VehicleDetails", "OtherAssets"},
		Route: func(item models.LineItem) string {
			if item.Field("registrationNo") != "" {
				return "VehicleDetails"
			}
			if item.Field("propertyType") != "" {
				return "PropertyDetails"
			}
			return "OtherAssets"
		},
		Validate: func(item models.LineItem) error {
			if pt := item.Field("propertyType"); pt != "" {
				if err := requireSelection("propertyType", pt); err != nil {
					return err
				}
			}
			if item.Field("description") == "" {
				return dErrors.New(dErrors.CodeBadRequest, "description is required")
			}
			return nil
		},
		FileRequired: true,
	},
	{
		Name:       "medical",
		PayloadKey: "medicalRecords",
		Sections:   []string{"MedicalHistory", "MedicalInsurance"},
		Route: func(item models.LineItem) string {
			if item.Field("policyNumber") != "" {
				return "MedicalInsurance"
			}
			return "MedicalHistory"
		},
		Validate: func(item models.LineItem) error {
			if item.Field("policyNumber") == "" && item.Field("condition") == "" {
				return dErrors.New(dErrors.CodeBadRequest, "condition or policyNumber is required")
			}
			return nil
		},
		StrictDelete: true,
	},
	{
		Name:       "education",
		PayloadKey: "educationRecords",
		Sections:   []string{"Education", "Employment"},
		Route: func(item models.LineItem) string {
			if item.Field("level") != "" {
				return "Education"
			}
			return "Employment"
		},
		Validate: func(item models.LineItem) error {
			if lvl := item.Field("level"); lvl != "" {
				if err := requireSelection("level", lvl); err != nil {
					return err
				}
			}
			if item.Field("institution") == "" {
				return dErrors.New(dErrors.CodeBadRequest, "institution is required")
			}
			return nil
		},
		FileRequired: true,
	},
	{
		Name:       "family",
		PayloadKey: "familyMembers",
		Sections:   []string{"Members"},
		Route: func(models.LineItem) string {
			return "Members"
		},
		Validate: func(item models.LineItem) error {
			if item.Field("name") == "" {
				return dErrors.New(dErrors.CodeBadRequest, "name is required")
			}
			if err := requireSelection("relation", item.Field("relation")); err != nil {
				return err
			}
			return nil
		},
	},
	{
		Name:       "digital",
		PayloadKey: "digitalAssets",
		Sections:   []string{"Accounts", "Devices"},
		Route: func(item models.LineItem) string {
			if item.Field("platform") != "" {
				return "Accounts"
			}
			return "Devices"
		},
		Validate: func(item models.LineItem) error {
			if p := item.Field("platform"); p != "" {
				if err := requireSelection("platform", p); err != nil {
					return err
				}
			}
			if item.Field("username") == "" {
				return dErrors.New(dErrors.CodeBadRequest, "username is required")
			}
			return nil
		},
		AllowRecordDelete: true,
	},
	{
		Name:       "legacy",
		PayloadKey: "legacyDocuments",
		Sections:   []string{"Letters", "Instructions"},
		Route: func(item models.LineItem) string {
			if item.Field("recipient") != "" {
				return "Letters"
			}
			return "Instructions"
		},
		Validate: func(item models.LineItem) error {
			if item.Field("title") == "" {
				return dErrors.New(dErrors.CodeBadRequest, "title is required")
			}
			return nil
		},
		FileRequired:      true,
		StrictDelete:      true,
		AllowRecordDelete: true,
	},
}

var byName = func() map[string]*Domain {
	m := make(map[string]*Domain, len(domains))
	for _, d := range domains {
		m[d.Name] = d
	}
	return m
}()

// All returns every domain descriptor in registration order.
func All() []*Domain {
	return domains
}

// ByName looks up a domain descriptor.
func ByName(name string) (*Domain, bool) {
	d, ok := byName[strings.ToLower(name)]
	return d, ok
}

func requireSelection(field, value string) error {
	if value == "" {
		return dErrors.Newf(dErrors.CodeBadRequest, "%s is required", field)
	}
	if IsSentinel(value) {
		return dErrors.Newf(dErrors.CodeBadRequest, "%s must be selected", field)
	}
	return nil
}
