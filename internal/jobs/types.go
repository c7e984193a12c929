package jobs

type JobType string

const (
	// JobSendWelcome greets a freshly registered user.
	JobSendWelcome JobType = "user.welcome"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobSendWelcome:
		return true
	default:
		return false
	}
}
