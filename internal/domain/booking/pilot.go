package booking

import (
	"fmt"
	"strings"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
)

// Pilot is a student's directory entry. The training level selects the
// weather minima applied to the student's bookings.
type Pilot struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	TrainingLevel minima.TrainingLevel `json:"trainingLevel"`
}

// Validate checks the id and training level.
func (p Pilot) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: missing pilot id", ErrInvalidBooking)
	}
	if !p.TrainingLevel.IsValid() {
		return fmt.Errorf("%w: %q", minima.ErrInvalidTrainingLevel, p.TrainingLevel)
	}
	return nil
}
