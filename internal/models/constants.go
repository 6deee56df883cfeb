package models

// Gender константы пола пользователя
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// ValidGenders список допустимых значений пола
var ValidGenders = map[string]struct{}{
	GenderMale:   {},
	GenderFemale: {},
	GenderOther:  {},
}

// ImageKind константы типов изображений компании
const (
	ImageKindLogo   = "logo"
	ImageKindBanner = "banner"
)
