package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/bill-linker/internal/domain/matcher"
)

// LinkRequest is the body of POST /api/link.
type LinkRequest struct {
	DryRun  bool            `json:"dry_run"`
	Options *OptionsRequest `json:"options,omitempty"`
}

// OptionsRequest overrides matching options. Absent fields keep the server
// defaults. Deltas may be numbers or strings.
type OptionsRequest struct {
	PastWindow         *int             `json:"past_window,omitempty"`
	FutureWindow       *int             `json:"future_window,omitempty"`
	MinAmountDelta     *decimal.Decimal `json:"min_amount_delta,omitempty"`
	MaxAmountDelta     *decimal.Decimal `json:"max_amount_delta,omitempty"`
	DeltaMode          *string          `json:"delta_mode,omitempty"`
	AllowUncategorized *bool            `json:"allow_uncategorized,omitempty"`
	Identifiers        CommaList        `json:"identifiers,omitempty"`
	IdentifierDistance *int             `json:"identifier_distance,omitempty"`
}

// Apply returns defaults with the request's fields laid over them.
func (o *OptionsRequest) Apply(defaults matcher.Options) matcher.Options {
	opts := defaults
	if o == nil {
		return opts
	}
	if o.PastWindow != nil {
		opts.PastWindow = *o.PastWindow
	}
	if o.FutureWindow != nil {
		opts.FutureWindow = *o.FutureWindow
	}
	if o.MinAmountDelta != nil {
		opts.MinAmountDelta = *o.MinAmountDelta
	}
	if o.MaxAmountDelta != nil {
		opts.MaxAmountDelta = *o.MaxAmountDelta
	}
	if o.DeltaMode != nil {
		opts.DeltaMode = matcher.DeltaMode(strings.ToLower(*o.DeltaMode))
	}
	if o.AllowUncategorized != nil {
		opts.AllowUncategorized = *o.AllowUncategorized
	}
	if o.Identifiers != nil {
		opts.Identifiers = []string(o.Identifiers)
	}
	if o.IdentifierDistance != nil {
		opts.IdentifierDistance = *o.IdentifierDistance
	}
	return opts
}

// CommaList accepts either a JSON array of strings or a single
// comma-separated string ("ameli, mgen"). Blank entries are dropped.
type CommaList []string

// UnmarshalJSON implements json.Unmarshaler.
func (c *CommaList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*c = clean(list)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("identifiers must be a string or a list of strings")
	}
	*c = clean(strings.Split(s, ","))
	return nil
}

func clean(parts []string) CommaList {
	out := CommaList{}
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
