package hours

import (
	"errors"
	"fmt"

	"goeat/internal/model"
)

// ErrPartnerNotFound is returned when the partner id is unknown.
var ErrPartnerNotFound = errors.New("partner not found")

// IsNotFound checks whether err reports an unknown partner.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPartnerNotFound)
}

// InvalidArgumentError reports unusable schedule input.
type InvalidArgumentError struct {
	Day    model.DayOfWeek
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Day.Valid() {
		return fmt.Sprintf("invalid schedule for %s: %s", e.Day, e.Reason)
	}
	return fmt.Sprintf("invalid schedule: %s", e.Reason)
}

// IsInvalidArgument checks if error is InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}
