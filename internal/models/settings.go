package models

// Theme is the UI colour scheme preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle returns the other theme. Anything that is not light counts as dark.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Normalize maps unknown values to ThemeDark.
func (t Theme) Normalize() Theme {
	if t == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// Settings holds user preferences for the till.
type Settings struct {
	// CurrencySymbol is prefixed to formatted amounts.
	CurrencySymbol string `json:"currencySymbol" validate:"required,max=4"`

	// DefaultWeights are the preset chips (grams) for items without their own.
	DefaultWeights []float64 `json:"defaultWeights" validate:"max=12,dive,gt=0,lte=100000"`

	// ConfirmClear asks the UI to confirm before clearing the bill.
	ConfirmClear bool `json:"confirmClear"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{
		CurrencySymbol: "₹",
		DefaultWeights: []float64{50, 100, 500, 1000},
		ConfirmClear:   true,
	}
}

// Lock holds the optional till passcode.
type Lock struct {
	// PasscodeHash is the bcrypt hash of the passcode. Empty means unlocked.
	PasscodeHash string `json:"passcodeHash"`

	// UpdatedAt is the Unix timestamp of the last passcode change.
	UpdatedAt int64 `json:"updatedAt"`
}

// Enabled reports whether a passcode is set.
func (l Lock) Enabled() bool {
	return l.PasscodeHash != ""
}
