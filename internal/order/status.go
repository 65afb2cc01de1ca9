// AngelaMos | 2026
// status.go

package order

import (
	"fmt"
	"strings"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusPaid       Status = "PAID"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// AllStatuses is sorted alphabetically for error messages.
var AllStatuses = []Status{
	StatusCancelled,
	StatusCompleted,
	StatusPaid,
	StatusPending,
	StatusProcessing,
}

// ParseStatus trims and upper-cases s before matching it.
func ParseStatus(s string) (Status, bool) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, status := range AllStatuses {
		if candidate == status {
			return status, true
		}
	}
	return "", false
}

func (s Status) String() string {
	return string(s)
}

// IsFinal reports whether s is terminal: PAID, COMPLETED or CANCELLED.
// A final order keeps its status and its items.
func (s Status) IsFinal() bool {
	return s == StatusPaid || s == StatusCompleted || s == StatusCancelled
}

func allowedStatusList() string {
	names := make([]string, len(AllStatuses))
	for i, status := range AllStatuses {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}

func invalidStatusError() error {
	return core.ValidationError(
		fmt.Sprintf("invalid status, allowed: %s", allowedStatusList()),
	)
}

// CheckUserCancel enforces that a user can only cancel a PENDING order.
func CheckUserCancel(current Status) error {
	if current != StatusPending {
		return core.InvalidTransitionError(
			"only PENDING orders can be cancelled by user",
		)
	}
	return nil
}

// CheckAdminTransition lets an admin move between any non-final statuses,
// backwards included. Leaving a final status is rejected; asking for the
// current status is always allowed.
func CheckAdminTransition(current, next Status) error {
	if current.IsFinal() && next != current {
		return core.InvalidTransitionError(
			"cannot change status after it is final",
		)
	}
	return nil
}

// CheckItemsEditable rejects item edits on final orders.
func CheckItemsEditable(current Status) error {
	if current.IsFinal() {
		return core.InvalidTransitionError(
			"cannot update items for final orders",
		)
	}
	return nil
}
