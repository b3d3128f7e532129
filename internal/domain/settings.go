package domain

const (
	DefaultSettingsPrice    = 10.0
	DefaultSettingsQuantity = 999
	DefaultSettingsRenew    = true
)

// UserSettings are the persistent per-user listing defaults edited on the settings page
type UserSettings struct {
	DefaultPrice    float64 `json:"default_price"`
	DefaultQuantity int     `json:"default_quantity"`
	AutoRenew       bool    `json:"auto_renew"`
}

func NewUserSettings() UserSettings {
	return UserSettings{
		DefaultPrice:    DefaultSettingsPrice,
		DefaultQuantity: DefaultSettingsQuantity,
		AutoRenew:       DefaultSettingsRenew,
	}
}

// SettingsPatch only changes the keys present in the request
type SettingsPatch struct {
	DefaultPrice    *float64 `json:"default_price,omitempty"`
	DefaultQuantity *int     `json:"default_quantity,omitempty"`
	AutoRenew       *bool    `json:"auto_renew,omitempty"`
}

func (s UserSettings) Apply(patch SettingsPatch) UserSettings {
	setIfPresent(&s.DefaultPrice, patch.DefaultPrice)
	setIfPresent(&s.DefaultQuantity, patch.DefaultQuantity)
	setIfPresent(&s.AutoRenew, patch.AutoRenew)
	return s
}
