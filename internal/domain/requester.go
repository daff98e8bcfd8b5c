package domain

// Requester идентичность, с которой пришёл запрос
// MemberID и StaffID выставляет шлюз, Phone передаёт гость
type Requester struct {
	MemberID *int64
	StaffID  *int64
	Phone    *string
}

// IsStaff запрос от сотрудника магазина
func (r Requester) IsStaff() bool {
	return r.StaffID != nil
}

// IsMember запрос от участника программы лояльности
func (r Requester) IsMember() bool {
	return r.MemberID != nil
}

// IsGuest запрос от гостя, подтверждающего себя телефоном
func (r Requester) IsGuest() bool {
	return r.StaffID == nil && r.MemberID == nil && r.Phone != nil
}
