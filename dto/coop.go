package dto

import "encoding/json"

type CreateCoopSessionRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=classic daily"`
}

func (r CreateCoopSessionRequest) Validate() error {
	return validate.Struct(r)
}

type JoinCoopSessionRequest struct {
	InviteCode string `json:"inviteCode" validate:"required,len=6,alphanum"`
}

func (r JoinCoopSessionRequest) Validate() error {
	return validate.Struct(r)
}

type CoopMoveRequest struct {
	SessionID   string          `json:"sessionId" validate:"required"`
	ElementBank json.RawMessage `json:"elementBank" validate:"required"`
	Moves       int             `json:"moves" validate:"min=0"`
	Discoveries []string        `json:"discoveries,omitempty"`
}

func (r CoopMoveRequest) Validate() error {
	return validate.Struct(r)
}

type CoopSaveRequest struct {
	ElementBank json.RawMessage `json:"elementBank" validate:"required"`
}

func (r CoopSaveRequest) Validate() error {
	return validate.Struct(r)
}

type CoopSessionResponse struct {
	ID                     string          `json:"id"`
	InviteCode             string          `json:"invite_code"`
	HostUserID             string          `json:"host_user_id"`
	PartnerUserID          *string         `json:"partner_user_id,omitempty"`
	Status                 string          `json:"status"`
	Mode                   string          `json:"mode,omitempty"`
	ElementBank            json.RawMessage `json:"element_bank,omitempty"`
	TotalMoves             int             `json:"total_moves"`
	TotalDiscoveries       int             `json:"total_discoveries"`
	FirstDiscoveryElements json.RawMessage `json:"first_discovery_elements,omitempty"`
	StartedAt              string          `json:"started_at,omitempty"`
	LastActivityAt         string          `json:"last_activity_at"`
}
