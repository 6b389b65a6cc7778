// Package session holds the device-local state that carries across
// check-ins: the anonymous device id, company sharing consent and the
// focused-category continuation. State is loaded from the key/value settings
// table and passed explicitly to the code that needs it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/moodlit/internal/constants"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/selector"
	"github.com/julianstephens/moodlit/internal/utils"
)

// KV is the settings surface of the local store.
type KV interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	RemoveSetting(ctx context.Context, key string) error
}

type State struct {
	DeviceID string
	Consent  bool
	Company  string

	FocusedCategory          int
	PreviousFocusedStatement models.CompetencyID
	AvailableCategories      []int

	Timezone     string
	MinUserWeeks int
}

// Load reads the session from kv, generating and persisting a device id on
// first use.
func Load(ctx context.Context, kv KV) (State, error) {
	st := State{
		Timezone:     constants.DefaultTimezone,
		MinUserWeeks: constants.MinUserWeeksForScore,
	}

	get := func(key string) (string, bool, error) {
		v, err := kv.GetSetting(ctx, key)
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return v, true, nil
	}

	id, ok, err := get(constants.SettingDeviceID)
	if err != nil {
		return State{}, err
	}
	if !ok || id == "" {
		id = uuid.NewString()
		if err := kv.SetSetting(ctx, constants.SettingDeviceID, id); err != nil {
			return State{}, fmt.Errorf("failed to persist device id: %w", err)
		}
	}
	st.DeviceID = id

	if v, ok, err := get(constants.SettingConsent); err != nil {
		return State{}, err
	} else if ok {
		st.Consent = v == "true"
	}

	if v, ok, err := get(constants.SettingCompany); err != nil {
		return State{}, err
	} else if ok {
		st.Company = v
	}

	if v, ok, err := get(constants.SettingFocusedCategory); err != nil {
		return State{}, err
	} else if ok && v != "" {
		if st.FocusedCategory, err = strconv.Atoi(v); err != nil {
			return State{}, fmt.Errorf("parsing %s: %w", constants.SettingFocusedCategory, err)
		}
	}

	if v, ok, err := get(constants.SettingPreviousFocusedStatement); err != nil {
		return State{}, err
	} else if ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return State{}, fmt.Errorf("parsing %s: %w", constants.SettingPreviousFocusedStatement, err)
		}
		st.PreviousFocusedStatement = models.ParseCompetencyID(f)
	}

	if v, ok, err := get(constants.SettingAvailableCategories); err != nil {
		return State{}, err
	} else if ok {
		if st.AvailableCategories, err = ParseCategories(v); err != nil {
			return State{}, fmt.Errorf("parsing %s: %w", constants.SettingAvailableCategories, err)
		}
	}

	if v, ok, err := get(constants.SettingTimezone); err != nil {
		return State{}, err
	} else if ok && v != "" {
		st.Timezone = v
	}

	if v, ok, err := get(constants.SettingMinUserWeeks); err != nil {
		return State{}, err
	} else if ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return State{}, fmt.Errorf("%s must be a positive integer, got %q", constants.SettingMinUserWeeks, v)
		}
		st.MinUserWeeks = n
	}

	return st, nil
}

// Location returns the configured timezone, falling back to local time.
func (s State) Location() *time.Location {
	loc, err := utils.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Sharing reports whether the user has joined a company and consented to
// anonymous mirroring.
func (s State) Sharing() bool {
	return s.Consent && s.Company != ""
}

// SelectorRequest builds the selector input for a check-in with tags.
func (s State) SelectorRequest(tags []int) selector.Request {
	req := selector.Request{
		SelectedTags:        tags,
		FocusedCategory:     s.FocusedCategory,
		AvailableCategories: s.AvailableCategories,
	}
	if s.FocusedCategory != 0 {
		req.PreviousFocusedStatement = s.PreviousFocusedStatement
	}
	return req
}

// ApplySelection persists the continuation changes requested by res.
func ApplySelection(ctx context.Context, kv KV, res selector.Result) error {
	switch {
	case res.ClearFocus:
		return ClearFocus(ctx, kv)
	case res.PersistFocused:
		return kv.SetSetting(ctx, constants.SettingPreviousFocusedStatement, res.CompetencyID.String())
	}
	return nil
}

// SetFocus starts a continuation through category from its first statement.
func SetFocus(ctx context.Context, kv KV, category int) error {
	if category <= 0 {
		return ClearFocus(ctx, kv)
	}
	if err := kv.SetSetting(ctx, constants.SettingFocusedCategory, strconv.Itoa(category)); err != nil {
		return err
	}
	return kv.RemoveSetting(ctx, constants.SettingPreviousFocusedStatement)
}

func ClearFocus(ctx context.Context, kv KV) error {
	if err := kv.RemoveSetting(ctx, constants.SettingFocusedCategory); err != nil {
		return err
	}
	return kv.RemoveSetting(ctx, constants.SettingPreviousFocusedStatement)
}

func SetConsent(ctx context.Context, kv KV, consent bool) error {
	return kv.SetSetting(ctx, constants.SettingConsent, strconv.FormatBool(consent))
}

// JoinCompany records the company and the categories it enables.
func JoinCompany(ctx context.Context, kv KV, company string, categories []int) error {
	if err := kv.SetSetting(ctx, constants.SettingCompany, company); err != nil {
		return err
	}
	return kv.SetSetting(ctx, constants.SettingAvailableCategories, FormatCategories(categories))
}

// ClearIdentity drops everything tied to the company identity. The keyring
// token is removed by the caller.
func ClearIdentity(ctx context.Context, kv KV) error {
	for _, key := range []string{
		constants.SettingConsent,
		constants.SettingCompany,
		constants.SettingAvailableCategories,
		constants.SettingFocusedCategory,
		constants.SettingPreviousFocusedStatement,
	} {
		if err := kv.RemoveSetting(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func ParseCategories(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid category %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func FormatCategories(cats []int) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}
