package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrEmptyCart         = errors.New("el carrito está vacío")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrTransactionFailed = errors.New("la transacción falló")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
)

// ErrIdempotencyConflict la clave ya confirmó una venta con otras líneas.
var ErrIdempotencyConflict = errors.New("la clave de idempotencia ya se usó con otra venta")

// InvalidQuantityError cantidad menor o igual a cero en una operación que exige positiva.
type InvalidQuantityError struct {
	Quantity int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("cantidad inválida: %d (debe ser mayor que cero)", e.Quantity)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidQuantity }

// NewInvalidQuantity construye el error de validación de cantidad.
func NewInvalidQuantity(q int64) error {
	return &InvalidQuantityError{Quantity: q}
}

// InsufficientStockError resultado de negocio esperado: el stock no alcanza.
// Available es -1 cuando no se conoce (rechazo del UPDATE condicional).
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	if e.Available < 0 {
		return fmt.Sprintf("stock insuficiente para el producto %s (solicitado %d)", e.ProductID, e.Requested)
	}
	return fmt.Sprintf("stock insuficiente para el producto %s (solicitado %d, disponible %d)",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NotFoundError entidad referenciada inexistente.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound construye un NotFoundError.
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidTransitionError intento de salir de un estado terminal de una solicitud de reposición.
type InvalidTransitionError struct {
	RequestID string
	From      string
	To        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición inválida de %s a %s en la solicitud %s", e.From, e.To, e.RequestID)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// TransactionFailedError falla de infraestructura dentro de una unidad de trabajo.
// La operación debe tratarse como no ocurrida (rollback completo).
type TransactionFailedError struct {
	Op    string
	Cause error
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("%s: transacción fallida: %v", e.Op, e.Cause)
}

// Unwrap expone tanto el sentinel como la causa para errors.Is / errors.As.
func (e *TransactionFailedError) Unwrap() []error {
	return []error{ErrTransactionFailed, e.Cause}
}

// NewTransactionFailed envuelve cause salvo que ya sea un error de negocio o ya esté envuelto.
func NewTransactionFailed(op string, cause error) error {
	if cause == nil {
		return nil
	}
	if IsBusinessError(cause) || errors.Is(cause, ErrTransactionFailed) {
		return cause
	}
	return &TransactionFailedError{Op: op, Cause: cause}
}

// IsBusinessError indica si err es de validación, de negocio, de transición o de entidad
// inexistente: se propagan tal cual (sin envolver en TransactionFailedError).
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrIdempotencyConflict) ||
		errors.Is(err, ErrNotFound)
}
