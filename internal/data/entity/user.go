package entity

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleCleaner  UserRole = "cleaner"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	Base
	Email         string   `db:"email"`
	FullName      string   `db:"full_name"`
	Phone         *string  `db:"phone"`
	Role          UserRole `db:"role"`
	CreditBalance float64  `db:"credit_balance"`
}
