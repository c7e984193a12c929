package jobs

import "fmt"

// ValidatePayload rejects payloads that would be unprocessable once claimed.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	switch t {
	case JobSendWelcome:
		p, ok := payload.(WelcomePayload)

		if !ok {
			pp, ok2 := payload.(*WelcomePayload)

			if !ok2 {
				return ErrPayloadTypeMismatch
			}
			p = *pp
		}

		if p.UserID <= 0 {
			return fmt.Errorf("%w: userId is required", ErrInvalidJobPayload)
		}

		if p.Email == "" {
			return fmt.Errorf("%w: email is required", ErrInvalidJobPayload)
		}
	}

	return nil
}
