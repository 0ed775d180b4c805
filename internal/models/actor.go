package models

// Actor is the authenticated caller, passed explicitly into every service
// call. A zero UserID means an anonymous POS terminal.
type Actor struct {
	UserID uint
	Name   string
	Role   UserRole
	ShopID *uint
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) IsWorker() bool { return a.Role == RoleWorker }

// CanAccessShop reports whether the actor may act on shopID. Workers are
// bound to their own shop; admins and anonymous terminals are not.
func (a Actor) CanAccessShop(shopID uint) bool {
	if a.Role != RoleWorker {
		return true
	}
	return a.ShopID != nil && *a.ShopID == shopID
}

// UserRef returns the user id for nullable foreign keys.
func (a Actor) UserRef() *uint {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}
