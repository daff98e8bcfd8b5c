package memberservice

// Profile контактные данные участника программы лояльности
type Profile struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
	Email  *string `json:"email,omitempty"`
	Gender *string `json:"gender,omitempty"`
}
