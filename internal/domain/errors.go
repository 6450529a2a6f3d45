package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Máquina de estados de la orden de compra.
	ErrInvalidState       = errors.New("transición de estado inválida")
	ErrActiveOrderExists  = errors.New("ya existe una orden activa para el producto")
	ErrConcurrentWrite    = errors.New("conflicto de escritura concurrente")
	ErrNoDefaultProvider  = errors.New("el producto no tiene proveedor predeterminado")
	ErrMissingPolicyData  = errors.New("faltan datos de la política de inventario")
	ErrInvalidPolicyData  = errors.New("datos de la política de inventario inválidos")
	ErrProviderLinkAbsent = errors.New("el proveedor no abastece el producto")
)

// ProductErrors agrupa los errores por producto de un lote. El lote continúa para el resto
// de productos; el llamador decide si reportarlos.
type ProductErrors map[string]error

// Add registra el error de un producto (el primero gana).
func (pe ProductErrors) Add(productID string, err error) {
	if _, ok := pe[productID]; ok {
		return
	}
	pe[productID] = err
}

// Err devuelve nil si no hay errores.
func (pe ProductErrors) Err() error {
	if len(pe) == 0 {
		return nil
	}
	return pe
}

func (pe ProductErrors) Error() string {
	ids := make([]string, 0, len(pe))
	for id := range pe {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, pe[id]))
	}
	return "errores por producto: " + strings.Join(parts, "; ")
}

// Unwrap permite errors.Is sobre cualquiera de los errores agrupados.
func (pe ProductErrors) Unwrap() []error {
	out := make([]error, 0, len(pe))
	for _, err := range pe {
		out = append(out, err)
	}
	return out
}
