// AngelaMos | 2026
// identity.go

package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole resolves a role string case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

func (r Role) String() string {
	return string(r)
}

// Identity is the resolved caller of a request.
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (i Identity) IsUser() bool {
	return i.Role == RoleUser
}

// CanAccessOwnedBy reports whether the identity may read a resource owned
// by ownerID. Only role user is restricted to its own rows.
func (i Identity) CanAccessOwnedBy(ownerID int64) bool {
	return !i.IsUser() || i.UserID == ownerID
}

// FlexInt decodes from a JSON number or a numeric string.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("must be an integer: %w", err)
		}
	} else {
		raw = string(data)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}

	*f = FlexInt(n)
	return nil
}

// MaxCount is the largest stock or quantity the INTEGER columns hold.
const MaxCount = math.MaxInt32

// ExceedsCount reports whether f is too large to store as a stock or
// quantity.
func (f FlexInt) ExceedsCount() bool {
	return f > MaxCount
}

func CountTooLargeError(field string) *AppError {
	return ValidationError(fmt.Sprintf("%s must be <= %d", field, MaxCount))
}

func (f FlexInt) Int64() int64 {
	return int64(f)
}

func (f FlexInt) Int() int {
	return int(f)
}

// ParseID parses a positive integer identifier from a path or query value.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("parse id %q: %w", s, ErrInvalidInput)
	}
	return id, nil
}

// NormalizeSort returns key and dir when both are allowed, falling back
// to the defaults otherwise. Inputs are matched case-insensitively.
func NormalizeSort(
	key, dir string,
	allowed map[string]struct{},
	defaultKey, defaultDir string,
) (string, string) {
	key = strings.ToLower(strings.TrimSpace(key))
	dir = strings.ToLower(strings.TrimSpace(dir))

	if _, ok := allowed[key]; !ok {
		key = defaultKey
	}
	if dir != "asc" && dir != "desc" {
		dir = defaultDir
	}

	return key, dir
}

func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
