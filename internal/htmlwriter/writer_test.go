package htmlwriter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
	"github.com/ginjaninja78/meal-vouchers/internal/types"
)

func group(name, dni string, stay, occupants, meals int) types.VoucherGroup {
	rep := types.ProcessedRecord{
		PassengerName: name,
		DNI:           dni,
		Hotel:         "Hotel Sierra",
		CheckInRaw:    "05/03/2024",
		CheckOutRaw:   "07/03/2024",
		Room:          "12",
		Booking:       "V9",
		StayDuration:  stay,
	}
	return types.VoucherGroup{
		Key:            rep.Key(),
		Members:        []types.ProcessedRecord{rep},
		Representative: rep,
		Occupants:      occupants,
		MealCount:      meals,
	}
}

func TestGenerate_FullBoardGrids(t *testing.T) {
	cfg := config.Default().WithTier(config.TierPC)

	out, err := Generate([]types.VoucherGroup{group("ANA GOMEZ", "1", 3, 2, 12)}, cfg)
	require.NoError(t, err)

	html := string(out)
	assert.Equal(t, 2, strings.Count(html, `class="meal-section"`))
	assert.Equal(t, 6, strings.Count(html, `class="day-box"`))
	assert.Contains(t, html, "Día 3")
	assert.NotContains(t, html, "Día 4")
	assert.Contains(t, html, MealLunch)
	assert.Contains(t, html, MealDinner)
	assert.Contains(t, html, "Voucher de Comidas PPJ")
	assert.Contains(t, html, "ANA GOMEZ")
	assert.Contains(t, html, `<span class="roomNumberContent">12</span>`)
}

func TestGenerate_HalfBoardSingleGrid(t *testing.T) {
	cfg := config.Default().WithTier(config.TierMAP)

	out, err := Generate([]types.VoucherGroup{group("ANA", "1", 2, 1, 2)}, cfg)
	require.NoError(t, err)

	html := string(out)
	assert.Equal(t, 1, strings.Count(html, `class="meal-section"`))
	assert.Equal(t, 2, strings.Count(html, `class="day-box"`))
	assert.NotContains(t, html, MealLunch)
	assert.Contains(t, html, "servicio de Cena")
}

func TestGenerate_ImageStyle(t *testing.T) {
	cfg := config.Default().WithTier(config.TierMAP)
	cfg.RenderStyle = config.StyleImage

	out, err := Generate([]types.VoucherGroup{group("ANA", "1", 2, 1, 2)}, cfg)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `src="assets/MapDay.png"`)
	assert.NotContains(t, html, `class="day-box"`)
}

func TestGenerate_OrderAndCount(t *testing.T) {
	cfg := config.Default()

	out, err := Generate([]types.VoucherGroup{
		group("FIRST", "1", 1, 1, 2),
		group("SECOND", "2", 1, 1, 2),
	}, cfg)
	require.NoError(t, err)

	html := string(out)
	assert.Equal(t, 2, strings.Count(html, `class="container"`))
	assert.Less(t, strings.Index(html, "FIRST"), strings.Index(html, "SECOND"))
}

func TestGenerate_EscapesText(t *testing.T) {
	out, err := Generate([]types.VoucherGroup{group("<script>X</script>", "1", 1, 1, 2)}, config.Default())
	require.NoError(t, err)

	assert.NotContains(t, string(out), "<script>")
	assert.Contains(t, string(out), "&lt;script&gt;")
}

func TestGenerate_NonPositiveStayHasNoBoxes(t *testing.T) {
	out, err := Generate([]types.VoucherGroup{group("ANA", "1", -2, 1, 0)}, config.Default())
	require.NoError(t, err)

	assert.NotContains(t, string(out), `class="day-box"`)
}

func TestGenerate_Empty(t *testing.T) {
	out, err := Generate(nil, config.Default())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGeneratePage(t *testing.T) {
	cfg := config.Default().WithTier(config.TierMAP)

	fragment, err := Generate([]types.VoucherGroup{group("ANA", "1", 1, 1, 1)}, cfg)
	require.NoError(t, err)

	page, err := GeneratePage(fragment, cfg, PageOptions{})
	require.NoError(t, err)

	html := string(page)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Voucher de Comidas</title>")
	assert.Contains(t, html, "@media print")
	assert.Contains(t, html, `<div id="resultOutput">`)
	assert.NotContains(t, html, `id="mode-indicator"`)
}

func TestGeneratePage_Controls(t *testing.T) {
	cfg := config.Default().WithTier(config.TierPC)

	page, err := GeneratePage([]byte(`<div class="container"></div>`), cfg, PageOptions{Controls: true, Title: "Vouchers"})
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<title>Vouchers</title>")
	assert.Contains(t, html, "Modo actual: PC")
	assert.Contains(t, html, `action="/vouchers"`)
	assert.Contains(t, html, `action="/tier"`)
	assert.Contains(t, html, "window.print()")
}

func TestGeneratePage_Empty(t *testing.T) {
	page, err := GeneratePage(nil, config.Default(), PageOptions{})
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, `<div id="noDataMessage">`)
	assert.Contains(t, html, EmptyMessage)
	assert.NotContains(t, html, `id="resultOutput"`)

	page, err = GeneratePage(nil, config.Default(), PageOptions{Message: "Sin datos"})
	require.NoError(t, err)
	assert.Contains(t, string(page), "Sin datos")
}
