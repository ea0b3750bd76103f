package entity

import "github.com/jelajah-lab/backend/pkg/enum"

// GlobalRole is carried by the access token, it is issued by the identity
// service.
type GlobalRole string

var (
	RoleUser  = enum.New(GlobalRole("user"))
	RoleAdmin = enum.New(GlobalRole("admin"))
)
