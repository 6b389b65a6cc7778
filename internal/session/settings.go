package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/utils"
)

// SetTimezone stores the IANA zone used for day and week boundaries.
func SetTimezone(ctx context.Context, kv KV, tz string) error {
	if !utils.ValidateTimezone(tz) {
		return fmt.Errorf("invalid timezone %q", tz)
	}
	return kv.SetSetting(ctx, constants.SettingTimezone, tz)
}

// SetMinUserWeeks stores how many user-weeks a category needs before the
// service scores it.
func SetMinUserWeeks(ctx context.Context, kv KV, n int) error {
	if n <= 0 {
		return fmt.Errorf("%s must be a positive integer, got %d", constants.SettingMinUserWeeks, n)
	}
	return kv.SetSetting(ctx, constants.SettingMinUserWeeks, strconv.Itoa(n))
}
