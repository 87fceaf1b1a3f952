package inventory

import (
	"errors"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// ToProductResponse convierte la entidad al DTO de salida.
func ToProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToLocationResponse convierte la entidad al DTO de salida.
func ToLocationResponse(l *entity.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// ToMovementResponse convierte la entidad al DTO de salida.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	kind := dto.MovementKindTransfer
	switch {
	case m.IsInflow():
		kind = dto.MovementKindInflow
	case m.IsOutflow():
		kind = dto.MovementKindOutflow
	}
	return dto.MovementResponse{
		ID:           m.ID,
		Timestamp:    m.Timestamp,
		ProductID:    m.ProductID,
		FromLocation: m.FromLocation,
		ToLocation:   m.ToLocation,
		Qty:          m.Qty,
		Kind:         kind,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toMovementList(list []*entity.Movement) []dto.MovementResponse {
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return items
}

func toRevisionResponse(r *entity.MovementRevision) dto.MovementRevisionResponse {
	return dto.MovementRevisionResponse{
		ID:        r.ID,
		Previous:  ToMovementResponse(&r.Previous),
		Current:   ToMovementResponse(&r.Current),
		AmendedAt: r.AmendedAt,
		AmendedBy: r.AmendedBy,
	}
}

// rejectReason etiqueta estable para métricas y logs.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnknownProduct):
		return "unknown_product"
	case errors.Is(err, domain.ErrUnknownLocation):
		return "unknown_location"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrNoLocationSpecified):
		return "no_location"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

// isDomainError distingue errores de entrada (se reportan al cliente) de fallos de infraestructura.
func isDomainError(err error) bool {
	return rejectReason(err) != "internal"
}
