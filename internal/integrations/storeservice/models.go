package storeservice

import "slices"

// Store магазин (ресторан) платформы
type Store struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	IsActive bool    `json:"is_active"`
	StaffIDs []int64 `json:"staff_ids"`
}

// HasStaff проверяет, что сотрудник работает в магазине
func (s *Store) HasStaff(staffID int64) bool {
	return slices.Contains(s.StaffIDs, staffID)
}
