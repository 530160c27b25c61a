package domain

// ProtectedUsername is the seeded administrator account.
const ProtectedUsername = "admin"

// Policy is the single place account rules are decided. Repositories consult
// it instead of comparing usernames themselves.
type Policy struct{}

// DefaultPolicy is the policy used by the account repository.
var DefaultPolicy = Policy{}

// IsProtected reports whether the account is the permanent administrator.
func (Policy) IsProtected(u User) bool {
	return u.Username == ProtectedUsername
}

// CanDelete returns a ForbiddenError if u must not be deleted.
func (p Policy) CanDelete(u User) error {
	if p.IsProtected(u) {
		return NewForbiddenError("account %q cannot be deleted", u.Username)
	}
	return nil
}

// CanChange returns a ForbiddenError if moving current to next would strip the
// protected account of its name or admin role.
func (p Policy) CanChange(current User, next UserUpdate) error {
	if !p.IsProtected(current) {
		if next.Username == ProtectedUsername {
			return NewForbiddenError("username %q is reserved", ProtectedUsername)
		}
		return nil
	}
	if next.Username != current.Username {
		return NewForbiddenError("account %q cannot be renamed", current.Username)
	}
	if next.Role != RoleAdmin {
		return NewForbiddenError("account %q must keep the admin role", current.Username)
	}
	return nil
}

// CanSetRole returns a ForbiddenError if u may not take role.
func (p Policy) CanSetRole(u User, role Role) error {
	if p.IsProtected(u) && role != RoleAdmin {
		return NewForbiddenError("account %q must keep the admin role", u.Username)
	}
	return nil
}

// IsAdmin reports whether u may use admin operations.
func (Policy) IsAdmin(u User) bool {
	return u.Role == RoleAdmin
}
