package approval

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

func (s Status) IsPending() bool {
	return s == StatusPending
}

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

type EntityType string

const (
	EntityRegistrationSession EntityType = "REGISTRATION_SESSION"
	EntityOwnershipLink       EntityType = "OWNERSHIP_LINK"
	EntityOwnershipTransfer   EntityType = "OWNERSHIP_TRANSFER"
	EntityParcelSubdivision   EntityType = "PARCEL_SUBDIVISION"
	EntityShareUpdate         EntityType = "SHARE_UPDATE"
	EntityEncumbrance         EntityType = "ENCUMBRANCE"
)

// Action names a gated mutation. Policies are keyed by action.
type Action string

const (
	ActionRegisterParcel      Action = "registration.submit"
	ActionAddCoOwner          Action = "ownership.link"
	ActionTransferOwnership   Action = "ownership.transfer"
	ActionSubdivideParcel     Action = "parcel.subdivide"
	ActionUpdateShare         Action = "ownership.update_share"
	ActionRegisterEncumbrance Action = "encumbrance.register"
	ActionReleaseEncumbrance  Action = "encumbrance.release"
)

var actionEntities = map[Action]EntityType{
	ActionRegisterParcel:      EntityRegistrationSession,
	ActionAddCoOwner:          EntityOwnershipLink,
	ActionTransferOwnership:   EntityOwnershipTransfer,
	ActionSubdivideParcel:     EntityParcelSubdivision,
	ActionUpdateShare:         EntityShareUpdate,
	ActionRegisterEncumbrance: EntityEncumbrance,
	ActionReleaseEncumbrance:  EntityEncumbrance,
}

// AllActions lists every gated action.
func AllActions() []Action {
	return []Action{
		ActionRegisterParcel,
		ActionAddCoOwner,
		ActionTransferOwnership,
		ActionSubdivideParcel,
		ActionUpdateShare,
		ActionRegisterEncumbrance,
		ActionReleaseEncumbrance,
	}
}

func (a Action) IsValid() bool {
	_, ok := actionEntities[a]
	return ok
}

// EntityType returns the kind of entity the action's request targets.
func (a Action) EntityType() EntityType {
	return actionEntities[a]
}
