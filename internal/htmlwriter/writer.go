// =============================================================================
// Meal Voucher Generator - HTML Voucher Writer
// =============================================================================
//
// This module renders voucher groups into a printable HTML document.
//
// DOCUMENT STRUCTURE:
//   One block per voucher group, concatenated in grouping order:
//
//   <div class="container">                  <!-- one voucher -->
//     letterhead, tier title and instruction
//     passenger name, DNI, facility, raw dates, room
//     Cant. Pax / Cant. Comidas
//     <div class="check-container ...">      <!-- check-off section -->
//       image style: one tier image
//       boxes style: one grid per served meal, one box per night
//     </div>
//   </div>
//
//   Full board gets two grids (Almuerzo, Cena), half board one (Cena). The
//   number of boxes in each grid is the stay duration, not the meal count.
//
// Rendering performs no I/O; callers decide where the bytes go.
//
// =============================================================================

package htmlwriter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
	"github.com/ginjaninja78/meal-vouchers/internal/types"
)

//go:embed templates
var templateFS embed.FS

// templates holds the parsed voucher and page templates.
var templates = template.Must(template.New("htmlwriter").ParseFS(templateFS, "templates/*.tmpl"))

// stylesheet is the print stylesheet embedded in standalone pages.
var stylesheet = mustReadFile("templates/style.css")

// Meal names used as grid titles.
const (
	MealLunch  = "Almuerzo"
	MealDinner = "Cena"
)

// EmptyMessage is shown on a page without vouchers.
const EmptyMessage = "No se encontraron registros para el modo seleccionado."

// =============================================================================
// VIEW MODELS
// =============================================================================

// voucherView is the data handed to the "voucher" template.
type voucherView struct {
	Logo        string
	Title       string
	Instruction string
	Name        string
	DNI         string
	Hotel       string
	CheckIn     string
	CheckOut    string
	Room        string
	Occupants   int
	MealCount   int

	// CheckImage is set only for the image style.
	CheckImage string

	// Grids is set only for the boxes style.
	Grids []gridView
}

// gridView is one meal's day-by-day check-off grid.
type gridView struct {
	Meal string
	Days []int
}

// pageView is the data handed to the "page" template.
type pageView struct {
	Title    string
	CSS      template.CSS
	Body     template.HTML
	Controls bool
	Tier     config.Tier
	Empty    bool
	Message  string
}

// =============================================================================
// GENERATION FUNCTIONS
// =============================================================================

// Generate renders the voucher blocks of all groups, in order, as one HTML
// fragment. An empty slice gives an empty fragment.
//
// PARAMETERS:
//   - groups: The voucher groups from the grouping stage.
//   - cfg: The configuration (tier, render style, images).
//
// RETURNS:
//   - The HTML fragment.
//   - An error if template execution fails.
func Generate(groups []types.VoucherGroup, cfg *config.Config) ([]byte, error) {
	var buffer bytes.Buffer

	for _, group := range groups {
		if err := templates.ExecuteTemplate(&buffer, "voucher", buildVoucher(group, cfg)); err != nil {
			return nil, fmt.Errorf("failed to render voucher %s: %w", group.Key, err)
		}
	}

	return buffer.Bytes(), nil
}

// PageOptions controls the standalone page around the voucher blocks.
type PageOptions struct {
	// Title is the browser title. Default: the active tier's title.
	Title string

	// Controls adds the upload form, tier toggle and print button.
	Controls bool

	// Message replaces the vouchers when fragment is empty.
	// Default: EmptyMessage
	Message string
}

// GeneratePage wraps a fragment produced by Generate into a printable HTML
// page. An empty fragment renders the empty-state message instead.
func GeneratePage(fragment []byte, cfg *config.Config, options PageOptions) ([]byte, error) {
	view := pageView{
		Title:    options.Title,
		CSS:      template.CSS(stylesheet),
		Body:     template.HTML(fragment),
		Controls: options.Controls,
		Tier:     cfg.Tier,
		Empty:    len(fragment) == 0,
		Message:  options.Message,
	}
	if view.Title == "" {
		view.Title = cfg.Active().Title
	}
	if view.Message == "" {
		view.Message = EmptyMessage
	}

	var buffer bytes.Buffer
	if err := templates.ExecuteTemplate(&buffer, "page", view); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	return buffer.Bytes(), nil
}

// =============================================================================
// VIEW BUILDING
// =============================================================================

// buildVoucher maps a group onto the voucher template data.
func buildVoucher(group types.VoucherGroup, cfg *config.Config) voucherView {
	rep := group.Representative
	tier := cfg.Active()

	view := voucherView{
		Logo:        cfg.LogoPath,
		Title:       tier.Title,
		Instruction: tier.Instruction,
		Name:        rep.PassengerName,
		DNI:         rep.DNI,
		Hotel:       rep.Hotel,
		CheckIn:     rep.CheckInRaw,
		CheckOut:    rep.CheckOutRaw,
		Room:        rep.Room,
		Occupants:   group.Occupants,
		MealCount:   group.MealCount,
	}

	switch cfg.RenderStyle {
	case config.StyleImage:
		view.CheckImage = tier.CheckImage
	default:
		view.Grids = buildGrids(cfg.Tier, group.StayDuration())
	}

	return view
}

// buildGrids returns the check-off grids for a tier: lunch and dinner for
// full board, dinner only for half board.
func buildGrids(tier config.Tier, stay int) []gridView {
	days := dayNumbers(stay)

	if tier == config.TierPC {
		return []gridView{
			{Meal: MealLunch, Days: days},
			{Meal: MealDinner, Days: days},
		}
	}
	return []gridView{{Meal: MealDinner, Days: days}}
}

// dayNumbers returns 1..n, or nothing when n is not positive.
func dayNumbers(n int) []int {
	if n <= 0 {
		return nil
	}
	days := make([]int, n)
	for i := range days {
		days[i] = i + 1
	}
	return days
}

func mustReadFile(name string) string {
	data, err := templateFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("htmlwriter: missing embedded file %s: %v", name, err))
	}
	return string(data)
}
