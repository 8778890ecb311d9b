package registration

type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusMerged          Status = "MERGED"
	StatusExpired         Status = "EXPIRED"
)

var validStatuses = map[Status]bool{
	StatusDraft:           true,
	StatusPendingApproval: true,
	StatusApproved:        true,
	StatusRejected:        true,
	StatusMerged:          true,
	StatusExpired:         true,
}

// DRAFT -> MERGED is the self-approval path.
var statusTransitions = map[Status][]Status{
	StatusDraft: {
		StatusPendingApproval,
		StatusMerged,
		StatusExpired,
	},
	StatusPendingApproval: {
		StatusApproved,
		StatusRejected,
	},
	StatusApproved: {
		StatusMerged,
	},
	StatusRejected: {
		StatusDraft,
	},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	return validStatuses[s]
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsEditable reports whether steps and documents may still change.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusRejected
}

func (s Status) IsTerminal() bool {
	return s == StatusMerged || s == StatusExpired
}
