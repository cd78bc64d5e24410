package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/pricing"
	"limify/internal/uuid"
)

var maxPercent = decimal.NewFromInt(100)

// Decimal places of the money and quantity columns. Inputs finer than these would be rounded
// on write and no longer add up to the stored totals.
const (
	moneyPlaces    int32 = 2
	quantityPlaces int32 = 4
)

// budgetDraft is a validated, fully priced budget that has not been written yet. Children
// carry their own ids so the tree can be inserted table by table.
type budgetDraft struct {
	budget      models.Budget
	items       []models.BudgetItem
	phases      []models.BudgetPhase
	segments    []models.BudgetSegment
	activities  []models.BudgetActivity
	additionals *models.BudgetAdditionals
	references  []models.BudgetReference
	quote       Quote
}

func invalid(format string, args ...interface{}) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func checkScale(field string, v decimal.Decimal, places int32) error {
	if !pricing.FitsScale(v, places) {
		return invalid("%s must have at most %d decimal places", field, places)
	}
	return nil
}

// buildDraft validates input and computes every total. It does not touch the database.
func buildDraft(input BudgetInput) (*budgetDraft, error) {
	if input.ValueType == "" {
		input.ValueType = models.ValueTypeIndividual
	}
	if err := validateBudgetShape(input); err != nil {
		return nil, err
	}

	d := &budgetDraft{
		budget: models.Budget{
			ClientID:     input.ClientID,
			Name:         strings.TrimSpace(input.Name),
			Description:  input.Description,
			Type:         input.Type,
			ValueType:    input.ValueType,
			Discount:     input.Discount,
			DiscountType: input.DiscountType,
		},
	}

	var err error
	if input.Type.IsItemBased() {
		err = d.priceItems(input)
	} else {
		err = d.pricePhases(input)
	}
	if err != nil {
		return nil, err
	}

	for _, name := range input.References {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		d.references = append(d.references, models.BudgetReference{
			Position:    len(d.references),
			ProjectName: name,
		})
	}
	return d, nil
}

func validateBudgetShape(input BudgetInput) error {
	switch {
	case input.Type.IsItemBased():
		if len(input.Items) == 0 {
			return invalid("at least one item is required")
		}
		if len(input.Phases) > 0 {
			return invalid("phases are only allowed on complete budgets")
		}
		if input.Additionals != nil {
			return invalid("additionals are only allowed on complete budgets")
		}
	case input.Type == models.BudgetTypeComplete:
		if len(input.Phases) == 0 {
			return invalid("at least one phase is required")
		}
		if len(input.Items) > 0 {
			return invalid("items are not allowed on complete budgets")
		}
	default:
		return invalid("unknown budget type %q", input.Type)
	}

	if input.ValueType != models.ValueTypeSingle && input.ValueType != models.ValueTypeIndividual {
		return invalid("unknown value type %q", input.ValueType)
	}

	if input.Discount.IsNegative() {
		return invalid("discount must not be negative")
	}
	if err := checkScale("discount", input.Discount, moneyPlaces); err != nil {
		return err
	}
	if input.Discount.IsPositive() {
		switch input.DiscountType {
		case pricing.DiscountPercentual:
			if input.Discount.GreaterThan(maxPercent) {
				return invalid("percentual discount must not exceed 100")
			}
		case pricing.DiscountFixed:
		default:
			return invalid("discount_type is required when a discount is given")
		}
	}
	return nil
}

func (d *budgetDraft) setTotals(subtotal decimal.Decimal, breakdown pricing.Breakdown) {
	d.budget.Subtotal = subtotal
	d.budget.Total = breakdown.Total
	d.quote.Breakdown = breakdown
}

// priceItems prices m2, render and modeling budgets. Single-price budgets store the shared
// unit price on every item.
func (d *budgetDraft) priceItems(input BudgetInput) error {
	var unitPrice *decimal.Decimal
	if input.ValueType == models.ValueTypeSingle {
		if input.UnitPrice == nil {
			return invalid("unit_price is required for single-price budgets")
		}
		if input.UnitPrice.IsNegative() {
			return invalid("unit_price must not be negative")
		}
		if err := checkScale("unit_price", *input.UnitPrice, moneyPlaces); err != nil {
			return err
		}
		p := *input.UnitPrice
		unitPrice = &p
		d.budget.UnitPrice = decimal.NewNullDecimal(p)
	}

	items := make([]pricing.Item, len(input.Items))
	for i, it := range input.Items {
		if it.Quantity.IsNegative() {
			return invalid("item %d: quantity must not be negative", i+1)
		}
		if err := checkScale(fmt.Sprintf("item %d: quantity", i+1), it.Quantity, quantityPlaces); err != nil {
			return err
		}
		if unitPrice == nil {
			if it.PricePerUnit.IsNegative() {
				return invalid("item %d: price_per_unit must not be negative", i+1)
			}
			if err := checkScale(fmt.Sprintf("item %d: price_per_unit", i+1), it.PricePerUnit, moneyPlaces); err != nil {
				return err
			}
		}
		items[i] = pricing.Item{PricePerUnit: it.PricePerUnit, Quantity: it.Quantity}
	}

	res, breakdown := pricing.QuoteItems(items, unitPrice, input.Discount, input.DiscountType)

	d.items = make([]models.BudgetItem, len(input.Items))
	d.quote.Items = make([]decimal.Decimal, len(input.Items))
	for i, it := range input.Items {
		price := it.PricePerUnit
		if unitPrice != nil {
			price = *unitPrice
		}
		d.items[i] = models.BudgetItem{
			Position:        i,
			Description:     it.Description,
			PricePerUnit:    price,
			Quantity:        it.Quantity,
			Total:           res.Totals[i],
			DevelopmentDays: it.DevelopmentDays,
			ImageCount:      it.ImageCount,
			Complexity:      it.Complexity,
		}
		d.quote.Items[i] = pricing.Round2(res.Totals[i])
	}

	d.setTotals(res.Subtotal, breakdown)
	return nil
}

type segmentRef struct {
	phase int
	id    string
}

// pricePhases prices a complete budget. Segment keys are resolved against the phase that
// declares the activity.
func (d *budgetDraft) pricePhases(input BudgetInput) error {
	keys := make(map[string]segmentRef)
	phaseRows := make([]pricing.Phase, len(input.Phases))
	var segmentRows []pricing.SegmentRow

	for pi, p := range input.Phases {
		if strings.TrimSpace(p.Name) == "" {
			return invalid("phase %d: name is required", pi+1)
		}
		if p.BaseValue.IsNegative() {
			return invalid("phase %d: base_value must not be negative", pi+1)
		}
		if err := checkScale(fmt.Sprintf("phase %d: base_value", pi+1), p.BaseValue, moneyPlaces); err != nil {
			return err
		}
		phase := models.BudgetPhase{
			Base:        models.Base{ID: uuid.New()},
			Position:    pi,
			Name:        strings.TrimSpace(p.Name),
			Description: p.Description,
			BaseValue:   p.BaseValue,
		}
		d.phases = append(d.phases, phase)
		phaseRows[pi] = pricing.Phase{ID: phase.ID, BaseValue: phase.BaseValue}

		for si, sg := range p.Segments {
			if strings.TrimSpace(sg.Name) == "" {
				return invalid("phase %d, segment %d: name is required", pi+1, si+1)
			}
			seg := models.BudgetSegment{
				Base:     models.Base{ID: uuid.New()},
				PhaseID:  phase.ID,
				Position: si,
				Name:     strings.TrimSpace(sg.Name),
			}
			d.segments = append(d.segments, seg)
			segmentRows = append(segmentRows, pricing.SegmentRow{ID: seg.ID, PhaseID: phase.ID})

			if sg.Key != "" {
				if _, dup := keys[sg.Key]; dup {
					return invalid("duplicate segment key %q", sg.Key)
				}
				keys[sg.Key] = segmentRef{phase: pi, id: seg.ID}
			}
		}
	}

	var activityRows []pricing.ActivityRow
	segIdx := 0
	for pi, p := range input.Phases {
		phaseID := d.phases[pi].ID
		position := 0

		for _, sg := range p.Segments {
			segID := d.segments[segIdx].ID
			segIdx++
			for _, a := range sg.Activities {
				if a.SegmentKey != nil && *a.SegmentKey != sg.Key {
					return invalid("activity %q: segment_key conflicts with its segment", a.Name)
				}
				id := segID
				row, err := d.addActivity(a, phaseID, &id, position)
				if err != nil {
					return err
				}
				activityRows = append(activityRows, row)
				position++
			}
		}

		for _, a := range p.Activities {
			var segID *string
			if a.SegmentKey != nil {
				ref, ok := keys[*a.SegmentKey]
				if !ok {
					return invalid("activity %q: unknown segment_key %q", a.Name, *a.SegmentKey)
				}
				if ref.phase != pi {
					return invalid("activity %q: %s", a.Name, pricing.ErrSegmentOutsidePhase)
				}
				id := ref.id
				segID = &id
			}
			row, err := d.addActivity(a, phaseID, segID, position)
			if err != nil {
				return err
			}
			activityRows = append(activityRows, row)
			position++
		}
	}

	tree, err := pricing.BuildPhases(phaseRows, segmentRows, activityRows)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var additionals *pricing.Additionals
	if input.Additionals != nil {
		if err := validateAdditionals(input.Additionals); err != nil {
			return err
		}
		a := *input.Additionals
		additionals = &a
		d.additionals = additionalsRow(a)
	}

	comp, breakdown := pricing.QuotePhases(tree, additionals, input.Discount, input.DiscountType)

	segmentTotals := make(map[string]decimal.Decimal, len(d.segments))
	d.quote.Phases = make([]PhaseQuote, len(comp.Phases))
	for i, pt := range comp.Phases {
		d.phases[i].Total = pt.Total
		pq := PhaseQuote{
			Name:     d.phases[i].Name,
			Total:    pricing.Round2(pt.Total),
			Segments: make([]decimal.Decimal, 0, len(pt.Segments)),
		}
		for _, st := range pt.Segments {
			segmentTotals[st.SegmentID] = st.Total
			pq.Segments = append(pq.Segments, pricing.Round2(st.Total))
		}
		d.quote.Phases[i] = pq
	}
	for i := range d.segments {
		d.segments[i].Total = segmentTotals[d.segments[i].ID]
	}

	d.setTotals(comp.Total, breakdown)
	return nil
}

// addActivity validates one activity and records it. The stored total is always derived.
func (d *budgetDraft) addActivity(a ActivityInput, phaseID string, segmentID *string, position int) (pricing.ActivityRow, error) {
	if strings.TrimSpace(a.Name) == "" {
		return pricing.ActivityRow{}, invalid("activity name is required")
	}
	if a.Time.IsNegative() || a.CostPerHour.IsNegative() {
		return pricing.ActivityRow{}, invalid("activity %q: time and cost_per_hour must not be negative", a.Name)
	}
	if err := checkScale(fmt.Sprintf("activity %q: time", a.Name), a.Time, moneyPlaces); err != nil {
		return pricing.ActivityRow{}, err
	}
	if err := checkScale(fmt.Sprintf("activity %q: cost_per_hour", a.Name), a.CostPerHour, moneyPlaces); err != nil {
		return pricing.ActivityRow{}, err
	}

	act := pricing.Activity{ID: uuid.New(), SegmentID: segmentID, Time: a.Time, CostPerHour: a.CostPerHour}
	if err := pricing.CheckActivityTotal(act, a.TotalCost); err != nil {
		if errors.Is(err, pricing.ErrActivityTotalMismatch) {
			return pricing.ActivityRow{}, apperrors.WithMessage(apperrors.ErrActivityTotalMismatch,
				fmt.Sprintf("activity %q: %s", a.Name, err))
		}
		return pricing.ActivityRow{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	d.activities = append(d.activities, models.BudgetActivity{
		Base:        models.Base{ID: act.ID},
		PhaseID:     phaseID,
		SegmentID:   segmentID,
		Position:    position,
		Name:        strings.TrimSpace(a.Name),
		Time:        a.Time,
		CostPerHour: a.CostPerHour,
		TotalCost:   act.Cost(),
		Complexity:  a.Complexity,
	})
	return pricing.ActivityRow{Activity: act, PhaseID: phaseID}, nil
}

func validateAdditionals(a *pricing.Additionals) error {
	for name, v := range map[string]decimal.Decimal{
		"wet_area_quantity":   a.WetAreaQuantity,
		"dry_area_quantity":   a.DryAreaQuantity,
		"delivery_daily_rate": a.DeliveryDailyRate,
	} {
		if v.IsNegative() {
			return invalid("%s must not be negative", name)
		}
	}
	for name, v := range map[string]decimal.Decimal{
		"wet_area_quantity":   a.WetAreaQuantity,
		"dry_area_quantity":   a.DryAreaQuantity,
		"wet_area_percentage": a.WetAreaPercentage,
		"dry_area_percentage": a.DryAreaPercentage,
	} {
		if err := checkScale(name, v, quantityPlaces); err != nil {
			return err
		}
	}
	if err := checkScale("delivery_daily_rate", a.DeliveryDailyRate, moneyPlaces); err != nil {
		return err
	}
	for name, v := range map[string]decimal.Decimal{
		"wet_area_percentage": a.WetAreaPercentage,
		"dry_area_percentage": a.DryAreaPercentage,
	} {
		if v.IsNegative() || v.GreaterThan(maxPercent) {
			return invalid("%s must be between 0 and 100", name)
		}
	}
	if a.DeliveryTimeDays < 0 {
		return invalid("delivery_time_days must not be negative")
	}
	return nil
}

func additionalsRow(a pricing.Additionals) *models.BudgetAdditionals {
	return &models.BudgetAdditionals{
		WetAreaQuantity:       a.WetAreaQuantity,
		DryAreaQuantity:       a.DryAreaQuantity,
		WetAreaPercentage:     a.WetAreaPercentage,
		DryAreaPercentage:     a.DryAreaPercentage,
		DeliveryTimeDays:      a.DeliveryTimeDays,
		DeliveryDailyRate:     a.DeliveryDailyRate,
		DisableDeliveryCharge: a.DisableDeliveryCharge,
	}
}

// attach points every child at budgetID.
func (d *budgetDraft) attach(budgetID string) {
	for i := range d.items {
		d.items[i].BudgetID = budgetID
	}
	for i := range d.phases {
		d.phases[i].BudgetID = budgetID
	}
	for i := range d.segments {
		d.segments[i].BudgetID = budgetID
	}
	for i := range d.activities {
		d.activities[i].BudgetID = budgetID
	}
	if d.additionals != nil {
		d.additionals.BudgetID = budgetID
	}
	for i := range d.references {
		d.references[i].BudgetID = budgetID
	}
}

// applyTo copies the editable fields and computed totals onto b.
func (d *budgetDraft) applyTo(b *models.Budget) {
	b.ClientID = d.budget.ClientID
	b.Name = d.budget.Name
	b.Description = d.budget.Description
	b.Type = d.budget.Type
	b.ValueType = d.budget.ValueType
	b.UnitPrice = d.budget.UnitPrice
	b.Discount = d.budget.Discount
	b.DiscountType = d.budget.DiscountType
	b.Subtotal = d.budget.Subtotal
	b.Total = d.budget.Total
}

// insertChildren writes the children parents first, so activities follow their segments.
func (d *budgetDraft) insertChildren(tx *gorm.DB) error {
	create := func(rows interface{}, n int) error {
		if n == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(rows).Error
	}

	if err := create(&d.items, len(d.items)); err != nil {
		return err
	}
	if err := create(&d.phases, len(d.phases)); err != nil {
		return err
	}
	if err := create(&d.segments, len(d.segments)); err != nil {
		return err
	}
	if err := create(&d.activities, len(d.activities)); err != nil {
		return err
	}
	if d.additionals != nil {
		if err := create(d.additionals, 1); err != nil {
			return err
		}
	}
	return create(&d.references, len(d.references))
}

// budgetChildren lists the child tables cleared on update and purge, leaves first.
var budgetChildren = []interface{}{
	&models.BudgetActivity{},
	&models.BudgetSegment{},
	&models.BudgetPhase{},
	&models.BudgetItem{},
	&models.BudgetAdditionals{},
	&models.BudgetReference{},
}

func deleteChildren(tx *gorm.DB, budgetID string) error {
	for _, model := range budgetChildren {
		if err := tx.Unscoped().Where("budget_id = ?", budgetID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
