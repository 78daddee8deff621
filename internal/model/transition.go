package model

// WarrantyAction names a ledger transition.
type WarrantyAction string

const (
    ActionSubmit           WarrantyAction = "submit"
    ActionFranchiseApprove WarrantyAction = "franchiseApprove"
    ActionFranchiseReject  WarrantyAction = "franchiseReject"
    ActionAdminValidate    WarrantyAction = "adminValidate"
    ActionAdminReject      WarrantyAction = "adminReject"
    ActionResubmit         WarrantyAction = "resubmit"
)

// AuthLevel says which authorization rule guards an action.
type AuthLevel string

const (
    LevelAny       AuthLevel = "any"
    LevelFranchise AuthLevel = "franchise"
    LevelAdmin     AuthLevel = "admin"
    LevelOwner     AuthLevel = "owner"
)

// Level returns the authorization level of an action.
func (a WarrantyAction) Level() AuthLevel {
    switch a {
    case ActionFranchiseApprove, ActionFranchiseReject:
        return LevelFranchise
    case ActionAdminValidate, ActionAdminReject:
        return LevelAdmin
    case ActionResubmit:
        return LevelOwner
    }
    return LevelAny
}
