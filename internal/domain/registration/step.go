package registration

type Step string

const (
	StepParcel     Step = "parcel"
	StepParcelDocs Step = "parcel-docs"
	StepOwner      Step = "owner"
	StepOwnerDocs  Step = "owner-docs"
	StepLease      Step = "lease"
	StepLeaseDocs  Step = "lease-docs"
	StepValidation Step = "validation"
)

var allSteps = []Step{
	StepParcel,
	StepParcelDocs,
	StepOwner,
	StepOwnerDocs,
	StepLease,
	StepLeaseDocs,
	StepValidation,
}

func ParseStep(s string) (Step, bool) {
	for _, step := range allSteps {
		if string(step) == s {
			return step, true
		}
	}
	return "", false
}

func (s Step) String() string {
	return string(s)
}

// CarriesDocuments reports whether the step holds a document-handle list.
func (s Step) CarriesDocuments() bool {
	return s == StepParcelDocs || s == StepOwnerDocs || s == StepLeaseDocs
}

// CarriesPayload reports whether the step stores a typed payload.
func (s Step) CarriesPayload() bool {
	return s == StepParcel || s == StepOwner || s == StepLease
}

// AvailableSteps returns the ordered steps that apply to the session as its
// payload currently stands. owner-docs is skipped for an existing owner and
// the lease steps only apply to LEASE tenure.
func AvailableSteps(s *Session) []Step {
	out := make([]Step, 0, len(allSteps))
	for _, step := range allSteps {
		switch step {
		case StepOwnerDocs:
			if s.ownerData != nil && s.ownerData.OwnerID != nil {
				continue
			}
		case StepLease, StepLeaseDocs:
			if !s.IsLease() {
				continue
			}
		}
		out = append(out, step)
	}
	return out
}

// IsStepAvailable reports whether step is in AvailableSteps(s).
func IsStepAvailable(s *Session, step Step) bool {
	for _, available := range AvailableSteps(s) {
		if available == step {
			return true
		}
	}
	return false
}
