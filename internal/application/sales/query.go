package sales

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// SaleQueryUseCase lectura de ventas confirmadas y generación del recibo.
type SaleQueryUseCase struct {
	sales     repository.SaleRepository
	products  repository.ProductRepository
	generator ReceiptGenerator
}

// NewSaleQueryUseCase construye el caso de uso. generator puede ser nil (recibo no disponible).
func NewSaleQueryUseCase(sales repository.SaleRepository, products repository.ProductRepository, generator ReceiptGenerator) *SaleQueryUseCase {
	return &SaleQueryUseCase{sales: sales, products: products, generator: generator}
}

// GetSale devuelve la venta con sus líneas.
func (uc *SaleQueryUseCase) GetSale(ctx context.Context, id string) (*entity.Sale, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.sales.GetByID(ctx, id)
}

// Receipt genera el PDF del recibo de la venta.
func (uc *SaleQueryUseCase) Receipt(ctx context.Context, id string) ([]byte, error) {
	if uc.generator == nil {
		return nil, domain.ErrInvalidInput
	}
	sale, err := uc.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	lines := make([]ReceiptLine, 0, len(sale.Items))
	for _, it := range sale.Items {
		name := it.ProductID
		// El producto pudo haberse eliminado; el recibo se imprime igual con el ID.
		if p, err := uc.products.GetByID(ctx, it.ProductID); err == nil {
			name = p.Name
		}
		lines = append(lines, ReceiptLine{Item: it, ProductName: name})
	}
	return uc.generator.GenerateReceiptPDF(ctx, sale, lines)
}
