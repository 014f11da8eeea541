package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// RateSubjectKind tells whether a rate quote belongs to an aircraft or
// an instructor
type RateSubjectKind string

const (
	RateSubjectAircraft   RateSubjectKind = "AIRCRAFT"
	RateSubjectInstructor RateSubjectKind = "INSTRUCTOR"
)

// RateQuote is a read-only rate lookup result, time-bounded to the
// resolution that produced it
type RateQuote struct {
	SubjectID     uuid.UUID         `json:"subject_id"`
	SubjectKind   RateSubjectKind   `json:"subject_kind"`
	FlightTypeID  uuid.UUID         `json:"flight_type_id"`
	RateExclusive valueobject.Money `json:"rate_exclusive"`
	Taxable       bool              `json:"taxable"`
}

// RateSource is the external rate collaborator, keyed by the
// (subject, flightType) pair. Implementations return shared.ErrNotFound
// when no rate row exists; any other error is treated as transient.
type RateSource interface {
	AircraftRate(ctx context.Context, aircraftID, flightTypeID uuid.UUID) (*RateQuote, error)
	InstructorRate(ctx context.Context, instructorID, flightTypeID uuid.UUID) (*RateQuote, error)
}

// TaxProvider supplies the organization-wide tax rate
type TaxProvider interface {
	OrganizationTaxRate(ctx context.Context) (valueobject.TaxRate, error)
}

// RateCacheKey is the invalidation key of the rate cache
type RateCacheKey struct {
	SubjectID    uuid.UUID
	FlightTypeID uuid.UUID
}

func (k RateCacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.SubjectID, k.FlightTypeID)
}

// RateCache is an explicit, time-bounded cache of rate quotes. A nil
// cache on the resolver disables caching entirely.
type RateCache interface {
	Get(key RateCacheKey) (*RateQuote, bool)
	Set(key RateCacheKey, quote RateQuote)
	Invalidate(key RateCacheKey)
}

// ResolvedRates bundles the rates a segment is priced with
type ResolvedRates struct {
	Aircraft   RateQuote
	Instructor *RateQuote
	TaxRate    valueobject.TaxRate
}

// RateResolver resolves aircraft and instructor rates for a flight-type
// pair plus the organization tax rate. It is a pure lookup with an
// optional TTL cache; quotes never leak across resolver instances.
type RateResolver struct {
	source RateSource
	tax    TaxProvider
	cache  RateCache
}

// NewRateResolver creates a resolver. cache may be nil to disable caching.
func NewRateResolver(source RateSource, tax TaxProvider, cache RateCache) *RateResolver {
	return &RateResolver{source: source, tax: tax, cache: cache}
}

// Resolve looks up the aircraft rate for (aircraftID, flightTypeID) and,
// when instructorID is non-nil, the instructor rate for the same flight
// type. A missing aircraft rate is fatal and reported as
// RATE_NOT_CONFIGURED; so is a missing instructor rate when an
// instructor is on the segment. Transient lookup failures pass through
// unchanged so callers can tell the two apart.
func (r *RateResolver) Resolve(ctx context.Context, aircraftID uuid.UUID, instructorID *uuid.UUID, flightTypeID uuid.UUID) (*ResolvedRates, error) {
	aircraftRate, err := r.lookup(ctx, RateCacheKey{SubjectID: aircraftID, FlightTypeID: flightTypeID}, func(ctx context.Context) (*RateQuote, error) {
		return r.source.AircraftRate(ctx, aircraftID, flightTypeID)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, NewRateNotConfiguredError("aircraft "+aircraftID.String(), flightTypeID.String())
		}
		return nil, fmt.Errorf("aircraft rate lookup: %w", err)
	}

	var instructorRate *RateQuote
	if instructorID != nil {
		instructorRate, err = r.lookup(ctx, RateCacheKey{SubjectID: *instructorID, FlightTypeID: flightTypeID}, func(ctx context.Context) (*RateQuote, error) {
			return r.source.InstructorRate(ctx, *instructorID, flightTypeID)
		})
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, NewRateNotConfiguredError("instructor "+instructorID.String(), flightTypeID.String())
			}
			return nil, fmt.Errorf("instructor rate lookup: %w", err)
		}
	}

	taxRate, err := r.tax.OrganizationTaxRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("tax rate lookup: %w", err)
	}

	return &ResolvedRates{
		Aircraft:   *aircraftRate,
		Instructor: instructorRate,
		TaxRate:    taxRate,
	}, nil
}

func (r *RateResolver) lookup(ctx context.Context, key RateCacheKey, fetch func(ctx context.Context) (*RateQuote, error)) (*RateQuote, error) {
	if r.cache != nil {
		if quote, ok := r.cache.Get(key); ok {
			return quote, nil
		}
	}
	quote, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(key, *quote)
	}
	return quote, nil
}
