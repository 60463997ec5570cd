package models

type EventStatus string

const (
	StatusDraft    EventStatus = "rascunho"
	StatusPending  EventStatus = "pendente"
	StatusApproved EventStatus = "aprovado"
	StatusRejected EventStatus = "rejeitado"
)

func (s EventStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleRegistrant Role = "cadastrador"
	RolePublic     Role = "public"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRegistrant, RolePublic:
		return true
	}
	return false
}

// RequestStatus is the onboarding state of an account, separate from EventStatus.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pendente"
	RequestApproved RequestStatus = "aprovado"
	RequestRejected RequestStatus = "rejeitado"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

type Badge struct {
	Label   string `json:"label"`
	Variant string `json:"variant"`
}

var statusBadges = map[string]Badge{
	string(StatusDraft):    {Label: "Rascunho", Variant: "outline"},
	string(StatusPending):  {Label: "Pendente", Variant: "secondary"},
	string(StatusApproved): {Label: "Aprovado", Variant: "default"},
	string(StatusRejected): {Label: "Rejeitado", Variant: "destructive"},
}

var roleBadges = map[Role]Badge{
	RoleAdmin:      {Label: "Admin", Variant: "default"},
	RoleRegistrant: {Label: "Cadastrador", Variant: "secondary"},
	RolePublic:     {Label: "Público", Variant: "outline"},
}

// StatusBadge covers both event statuses and request statuses, which share wire values.
// Unknown values fall back to their raw text with the secondary variant.
func StatusBadge(status string) Badge {
	if b, ok := statusBadges[status]; ok {
		return b
	}
	return Badge{Label: status, Variant: "secondary"}
}

func RoleBadge(role Role) Badge {
	if b, ok := roleBadges[role]; ok {
		return b
	}
	return Badge{Label: string(role), Variant: "secondary"}
}

// BadgeTable is served to clients so every view renders from the same lookup.
func BadgeTable() map[string]map[string]Badge {
	statuses := make(map[string]Badge, len(statusBadges))
	for k, v := range statusBadges {
		statuses[k] = v
	}
	roles := make(map[string]Badge, len(roleBadges))
	for k, v := range roleBadges {
		roles[string(k)] = v
	}
	return map[string]map[string]Badge{
		"status": statuses,
		"role":   roles,
	}
}
