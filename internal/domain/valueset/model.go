package valueset

// EncounterClass is a visit category. Its code doubles as a role: users whose
// role equals a class code only see appointments of that class.
type EncounterClass struct {
	ID      int    `json:"id"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// EncounterType is a billable service offered under a class.
type EncounterType struct {
	ID      int     `json:"id"`
	ClassID int     `json:"class_id"`
	Code    string  `json:"code"`
	Display string  `json:"display"`
	Price   float64 `json:"price"`
}

type ClassInput struct {
	Code    string `json:"code" validate:"required"`
	Display string `json:"display" validate:"required"`
}

// TypeInput creates an encounter type under the class named by ClassCode.
type TypeInput struct {
	ClassCode string   `json:"class_code" validate:"required"`
	Code      string   `json:"code" validate:"required"`
	Display   string   `json:"display" validate:"required"`
	Price     *float64 `json:"price" validate:"required,gte=0"`
}

// TypeUpdate replaces an encounter type. The class is referenced by id here,
// unlike TypeInput.
type TypeUpdate struct {
	ClassID int      `json:"class_id" validate:"required"`
	Code    string   `json:"code" validate:"required"`
	Display string   `json:"display" validate:"required"`
	Price   *float64 `json:"price" validate:"required,gte=0"`
}
