package models

// Setting is one mutable configuration entry. Encrypted settings are masked
// in API responses; the raw value stays readable in-process.
type Setting struct {
	Base
	Key         string `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value       string `gorm:"type:text" json:"value"`
	Group       string `gorm:"size:50;not null" json:"group"`
	Label       string `gorm:"size:200" json:"label"`
	Description string `gorm:"type:text" json:"description"`
	Encrypted   bool   `gorm:"default:false" json:"encrypted"`
}
