package sales_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

type capturingGenerator struct {
	sale  *entity.Sale
	lines []sales.ReceiptLine
}

func (g *capturingGenerator) GenerateReceiptPDF(_ context.Context, sale *entity.Sale, lines []sales.ReceiptLine) ([]byte, error) {
	g.sale, g.lines = sale, lines
	return []byte("%PDF-fake"), nil
}

func TestSaleQuery_ReciboResuelveNombres(t *testing.T) {
	f := newFixture()
	sale, err := f.coord.Commit(context.Background(), sales.CommitInput{
		Lines: []sales.CommitLine{line("p1", 1, "2500"), line("p2", 2, "1000")},
	})
	require.NoError(t, err)

	gen := &capturingGenerator{}
	uc := sales.NewSaleQueryUseCase(f.store.Sales(), f.store, gen)

	pdf, err := uc.Receipt(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(pdf))
	require.Len(t, gen.lines, 2)
	assert.Equal(t, "Arroz", gen.lines[0].ProductName)
	assert.Equal(t, "Aceite", gen.lines[1].ProductName)
	assert.Equal(t, sale.ID, gen.sale.ID)
}

func TestSaleQuery_Errores(t *testing.T) {
	f := newFixture()
	uc := sales.NewSaleQueryUseCase(f.store.Sales(), f.store, nil)
	ctx := context.Background()

	_, err := uc.GetSale(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.GetSale(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Receipt(ctx, "cualquiera")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin generador no hay recibo")
}
