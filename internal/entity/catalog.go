package entity

// Category, Attraction and Task form the reference catalog. The engine never
// writes them, they are maintained by the content team through migrations and
// the seed command.

type Category struct {
	Base
	Name string
}

type Attraction struct {
	Base
	Name       string
	CategoryID string   `gorm:"index"`
	Category   Category `gorm:"foreignKey:CategoryID"`
}

type Task struct {
	Base
	Title        string
	AttractionID string     `gorm:"index"`
	Attraction   Attraction `gorm:"foreignKey:AttractionID"`
}
