package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Todas las validaciones del ledger devuelven uno de estos valores (o lo envuelven con %w).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrDuplicateID         = errors.New("el id ya existe")
	ErrValidation          = errors.New("campo requerido vacío")
	ErrUnknownProduct      = errors.New("producto no registrado")
	ErrUnknownLocation     = errors.New("ubicación no registrada")
	ErrInvalidQuantity     = errors.New("la cantidad debe ser mayor que cero y no superar el máximo")
	ErrNoLocationSpecified = errors.New("se requiere al menos una ubicación (origen o destino)")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
)
