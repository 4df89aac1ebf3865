package models

type ProviderType = string

const (
	ProviderTypeAccount = ProviderType("accounts")
	ProviderTypeBot     = ProviderType("bots")
)

// Provider is the polymorphic "who did this" reference used by calls and
// participants. Concrete provider records live in external services and are
// referenced by (type, id) only; the interface carries just enough to render
// ownership in projections.
type Provider interface {
	ProviderID() uint
	ProviderKind() ProviderType
	DisplayName() string
	AvatarRef() *string
}

type Account struct {
	BaseModel

	Name   string  `json:"name"`
	Nick   string  `json:"nick"`
	Avatar *string `json:"avatar"`
}

func (v Account) ProviderID() uint {
	return v.ID
}

func (v Account) ProviderKind() ProviderType {
	return ProviderTypeAccount
}

func (v Account) DisplayName() string {
	if len(v.Nick) > 0 {
		return v.Nick
	}
	return v.Name
}

func (v Account) AvatarRef() *string {
	return v.Avatar
}
