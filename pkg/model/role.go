package model

//go:generate go run github.com/dmarkham/enumer -type Role -trimprefix Role -json -text -sql -output role.gen.go

// Role is the privilege level bound to an identity at registration.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)
