// Package engine implements the reservation lifecycle and quota accounting
// rules. Handlers stay thin: they bind requests and map errors, while every
// multi-step write runs here inside a single database transaction.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrihub/seed-reservation/internal/model"
	"github.com/agrihub/seed-reservation/internal/repository"
)

// ErrNoItems is returned when a reservation is created or edited with an
// empty item list.
var ErrNoItems = errors.New("reservation must contain at least one item")

// ErrInvalidMethod is returned when the distribution method is not one of
// the accepted values.
var ErrInvalidMethod = errors.New("invalid distribution method")

// Engine coordinates the repositories behind reservation operations.
type Engine struct {
	db           *sql.DB
	provinces    *repository.ProvinceRepo
	varieties    *repository.VarietyRepo
	allocations  *repository.AllocationRepo
	farmers      *repository.FarmerRepo
	reservations *repository.ReservationRepo
	movements    *repository.MovementRepo
}

// New assembles an Engine over a shared database handle.
func New(db *sql.DB,
	provinces *repository.ProvinceRepo,
	varieties *repository.VarietyRepo,
	allocations *repository.AllocationRepo,
	farmers *repository.FarmerRepo,
	reservations *repository.ReservationRepo,
	movements *repository.MovementRepo,
) *Engine {
	return &Engine{
		db:           db,
		provinces:    provinces,
		varieties:    varieties,
		allocations:  allocations,
		farmers:      farmers,
		reservations: reservations,
		movements:    movements,
	}
}

// ItemInput is one requested line of a reservation.
type ItemInput struct {
	SeedVarietyID uint64  `json:"seed_variety_id"`
	QuantityKg    float64 `json:"quantity_kg"`
}

// CreateInput carries everything needed to place a reservation.
type CreateInput struct {
	FarmerID           uint64
	DistributorID      *uint64
	DeliveryDate       time.Time
	DistributionMethod string
	Notes              *string
	Items              []ItemInput
}

// buildItems validates requested lines against the province's allocations
// and prices them. Each variety must have an active allocation for the
// province and the quantity must fall inside the effective order bounds
// (province override when set, otherwise the variety's global bounds).
// Returns the priced item records plus the total quantity and amount.
func (e *Engine) buildItems(ctx context.Context, provinceID uint64, items []ItemInput) ([]repository.ItemRecord, float64, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, 0, decimal.Zero, ErrNoItems
	}
	records := make([]repository.ItemRecord, 0, len(items))
	var totalKg float64
	totalAmount := decimal.Zero
	for _, it := range items {
		if it.QuantityKg <= 0 {
			return nil, 0, decimal.Zero, &repository.InvalidItemError{
				SeedVarietyID: it.SeedVarietyID,
				QuantityKg:    it.QuantityKg,
				Reason:        "quantity must be positive",
			}
		}
		alloc, err := e.allocations.GetActive(ctx, provinceID, it.SeedVarietyID)
		if err != nil {
			return nil, 0, decimal.Zero, err
		}
		if alloc == nil {
			return nil, 0, decimal.Zero, &repository.InvalidItemError{
				SeedVarietyID: it.SeedVarietyID,
				QuantityKg:    it.QuantityKg,
				Reason:        "variety is not allocated to this province",
			}
		}
		variety, err := e.varieties.GetActive(ctx, it.SeedVarietyID)
		if err != nil {
			return nil, 0, decimal.Zero, err
		}
		minKg, maxKg := variety.MinOrderKg, variety.MaxOrderKg
		if alloc.MinOrderKg != nil {
			minKg = *alloc.MinOrderKg
		}
		if alloc.MaxOrderKg != nil {
			maxKg = *alloc.MaxOrderKg
		}
		if it.QuantityKg < minKg || it.QuantityKg > maxKg {
			return nil, 0, decimal.Zero, &repository.InvalidItemError{
				SeedVarietyID: it.SeedVarietyID,
				QuantityKg:    it.QuantityKg,
				MinKg:         minKg,
				MaxKg:         maxKg,
				Reason:        "quantity outside order bounds",
			}
		}
		lineTotal := variety.PricePerKg.Mul(decimal.NewFromFloat(it.QuantityKg))
		records = append(records, repository.ItemRecord{
			SeedVarietyID: it.SeedVarietyID,
			QuantityKg:    it.QuantityKg,
			UnitPrice:     variety.PricePerKg,
			TotalPrice:    lineTotal,
		})
		totalKg += it.QuantityKg
		totalAmount = totalAmount.Add(lineTotal)
	}
	return records, totalKg, totalAmount, nil
}

// CreateReservation validates and persists a new pending reservation.
//
// The quota check here is advisory: it reads the current balance and
// refuses requests that already exceed it, but it does not reserve
// anything. The quota is only debited at approval, so two farmers can both
// create reservations that together exceed the remaining balance; the
// second approval will fail instead.
func (e *Engine) CreateReservation(ctx context.Context, in CreateInput) (*repository.ReservationDetail, error) {
	farmer, err := e.farmers.GetByID(ctx, in.FarmerID)
	if err != nil {
		return nil, err
	}
	if in.DistributionMethod != model.MethodDistributor && in.DistributionMethod != model.MethodDirect {
		return nil, ErrInvalidMethod
	}
	records, totalKg, totalAmount, err := e.buildItems(ctx, farmer.ProvinceID, in.Items)
	if err != nil {
		return nil, err
	}

	province, err := e.provinces.GetQuota(ctx, farmer.ProvinceID)
	if err != nil {
		return nil, err
	}
	if totalKg > province.RemainingKg {
		return nil, repository.ErrQuotaExceeded
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec := repository.ReservationRecord{
		FarmerID:           farmer.ID,
		ProvinceID:         farmer.ProvinceID,
		DistributorID:      in.DistributorID,
		TotalQuantityKg:    totalKg,
		TotalAmount:        totalAmount,
		DeliveryDate:       in.DeliveryDate,
		DistributionMethod: in.DistributionMethod,
		Status:             model.StatusPending,
		Notes:              in.Notes,
	}
	if err := e.reservations.CreateTx(ctx, tx, &rec); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].ReservationID = rec.ID
	}
	if err := e.reservations.CreateItemsBulkTx(ctx, tx, records); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return e.reservations.GetByID(ctx, rec.ID)
}

// StatusChange describes the outcome of a status transition, including the
// quota balances around it. Changed is false for a same-state call, which
// updates nothing but the admin notes.
type StatusChange struct {
	ReservationID       uint64
	FarmerID            uint64
	ProvinceID          uint64
	From                string
	To                  string
	QuantityKg          float64
	PreviousRemainingKg float64
	NewRemainingKg      float64
	Changed             bool
}

// SetStatus moves a reservation through the lifecycle. The status check,
// the quota adjustment, the movement record and the status write all
// happen in one transaction, so a refused quota debit leaves the
// reservation untouched.
//
// Setting the current status again is a no-op that only persists the admin
// notes when supplied. Transitions out of rejected or delivered return
// ErrInvalidTransition.
func (e *Engine) SetStatus(ctx context.Context, reservationID uint64, next string, adminNotes *string, actor string) (*StatusChange, error) {
	if !validStatus(next) {
		return nil, repository.ErrInvalidTransition
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	h, err := e.reservations.GetHeaderTx(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	change := &StatusChange{
		ReservationID: h.ID,
		FarmerID:      h.FarmerID,
		ProvinceID:    h.ProvinceID,
		From:          h.Status,
		To:            next,
		QuantityKg:    h.TotalQuantityKg,
	}

	if h.Status == next {
		if adminNotes != nil {
			if err := e.reservations.UpdateAdminNotesTx(ctx, tx, reservationID, *adminNotes); err != nil {
				return nil, err
			}
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return change, nil
	}

	delta, err := quotaDelta(h.Status, next, h.TotalQuantityKg)
	if err != nil {
		return nil, err
	}
	if delta != 0 {
		prev, now, err := e.provinces.ApplyDeltaTx(ctx, tx, h.ProvinceID, delta)
		if err != nil {
			return nil, err
		}
		movementType := model.MovementAddition
		if delta < 0 {
			movementType = model.MovementDeduction
		}
		rid := h.ID
		if err := e.movements.RecordTx(ctx, tx, repository.MovementRecord{
			ProvinceID:          h.ProvinceID,
			ReservationID:       &rid,
			MovementType:        movementType,
			QuantityKg:          h.TotalQuantityKg,
			PreviousRemainingKg: prev,
			NewRemainingKg:      now,
			Description:         fmt.Sprintf("reservation %d: %s -> %s", h.ID, h.Status, next),
			CreatedBy:           actor,
		}); err != nil {
			return nil, err
		}
		change.PreviousRemainingKg = prev
		change.NewRemainingKg = now
	}

	if err := e.reservations.UpdateStatusTx(ctx, tx, reservationID, next, adminNotes); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	change.Changed = true
	return change, nil
}

// EditInput carries a staff edit of a pending reservation.
type EditInput struct {
	Items        []ItemInput
	DeliveryDate time.Time
	EditReason   string
}

// EditPending replaces the line items of a pending reservation, recomputes
// its totals and records the edit. The first edit snapshots the original
// totals into the audit columns; later edits leave the snapshot alone.
// Edits never touch the quota because pending reservations hold none.
// Returns ErrNotEditable when the reservation is no longer pending.
func (e *Engine) EditPending(ctx context.Context, reservationID uint64, in EditInput) (*repository.ReservationDetail, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	h, err := e.reservations.GetHeaderTx(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if h.Status != model.StatusPending {
		return nil, repository.ErrNotEditable
	}

	records, totalKg, totalAmount, err := e.buildItems(ctx, h.ProvinceID, in.Items)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].ReservationID = h.ID
	}

	if err := e.reservations.SnapshotOriginalsTx(ctx, tx, h.ID); err != nil {
		return nil, err
	}
	if err := e.reservations.ReplaceItemsTx(ctx, tx, h.ID, records); err != nil {
		return nil, err
	}
	if err := e.reservations.UpdateEditTx(ctx, tx, h.ID, totalKg, totalAmount, in.DeliveryDate, in.EditReason); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return e.reservations.GetByID(ctx, h.ID)
}

// ResizeQuota sets a new total quota for a province, preserving the
// already-consumed amount.
func (e *Engine) ResizeQuota(ctx context.Context, provinceID uint64, newTotalKg float64) (repository.ProvinceRow, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.ProvinceRow{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	p, err := e.provinces.ResizeQuotaTx(ctx, tx, provinceID, newTotalKg)
	if err != nil {
		return repository.ProvinceRow{}, err
	}
	if err := tx.Commit(); err != nil {
		return repository.ProvinceRow{}, err
	}
	committed = true
	return p, nil
}
