package constants

const (
	// Session Settings
	SettingDeviceID                 = "device_id"
	SettingConsent                  = "company_consent"
	SettingCompany                  = "company"
	SettingFocusedCategory          = "focused_category"
	SettingPreviousFocusedStatement = "previous_focused_statement"
	SettingAvailableCategories      = "available_categories"
	SettingTimezone                 = "timezone"
	SettingMinUserWeeks             = "min_user_weeks"

	// Default Settings Values
	DefaultTimezone = "Local" // Use system local timezone by default
)
