package models

import (
	"gorm.io/gorm"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User is the minimal identity the marketplace reads: deals and messages
// embed it as seller/buyer/sender summaries. The password hash never
// serializes.
type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"uniqueIndex"`
	Password string `json:"-"`
	Role     string `json:"role" gorm:"type:varchar(20);default:buyer;index"` // buyer, seller, admin
}
