package vehicle

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/washline/service-booking/internal/platform/domain"
)

// BodyType is the vehicle body style, used by washers to plan the job.
type BodyType string

const (
	BodySedan     BodyType = "sedan"
	BodyHatchback BodyType = "hatchback"
	BodySUV       BodyType = "suv"
	BodyVan       BodyType = "van"
	BodyOther     BodyType = "other"
)

// IsValid returns true if the body type is recognized.
func (b BodyType) IsValid() bool {
	switch b {
	case BodySedan, BodyHatchback, BodySUV, BodyVan, BodyOther:
		return true
	}
	return false
}

// Vehicle is the aggregate root for a customer's saved vehicle.
type Vehicle struct {
	id         uuid.UUID
	customerID uuid.UUID
	brand      string
	model      string
	year       int
	color      string
	bodyType   BodyType
	plate      string
	isDefault  bool
	version    int64
	createdAt  time.Time
	updatedAt  time.Time
}

// NewVehicle creates a vehicle with validated fields. It is not default;
// the caller promotes the customer's first vehicle.
func NewVehicle(customerID uuid.UUID, brand, model string, year int, color string, bodyType BodyType, plate string) (*Vehicle, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	brand = strings.TrimSpace(brand)
	model = strings.TrimSpace(model)
	if brand == "" {
		return nil, domain.NewValidationError("vehicle brand is required")
	}
	if model == "" {
		return nil, domain.NewValidationError("vehicle model is required")
	}
	if year != 0 && (year < 1950 || year > time.Now().Year()+1) {
		return nil, domain.NewValidationError("vehicle year is out of range")
	}
	if bodyType == "" {
		bodyType = BodyOther
	}
	if !bodyType.IsValid() {
		return nil, domain.NewValidationError("invalid body type: " + string(bodyType))
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:         uuid.New(),
		customerID: customerID,
		brand:      brand,
		model:      model,
		year:       year,
		color:      strings.TrimSpace(color),
		bodyType:   bodyType,
		plate:      normalizePlate(plate),
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id, customerID uuid.UUID,
	brand, model string,
	year int,
	color string,
	bodyType BodyType,
	plate string,
	isDefault bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:         id,
		customerID: customerID,
		brand:      brand,
		model:      model,
		year:       year,
		color:      color,
		bodyType:   bodyType,
		plate:      plate,
		isDefault:  isDefault,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID         { return v.id }
func (v *Vehicle) CustomerID() uuid.UUID { return v.customerID }
func (v *Vehicle) Brand() string         { return v.brand }
func (v *Vehicle) Model() string         { return v.model }
func (v *Vehicle) Year() int             { return v.year }
func (v *Vehicle) Color() string         { return v.color }
func (v *Vehicle) BodyType() BodyType    { return v.bodyType }
func (v *Vehicle) Plate() string         { return v.plate }
func (v *Vehicle) IsDefault() bool       { return v.isDefault }
func (v *Vehicle) Version() int64        { return v.version }
func (v *Vehicle) CreatedAt() time.Time  { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time  { return v.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the vehicle belongs to the given customer.
func (v *Vehicle) IsOwnedBy(customerID uuid.UUID) bool {
	return v.customerID == customerID
}

// MarkDefault flags the vehicle as the customer's default. Clearing the
// previous default is the repository's job.
func (v *Vehicle) MarkDefault() {
	v.isDefault = true
	v.updatedAt = time.Now().UTC()
}

// Update applies partial updates; empty values keep the current field.
func (v *Vehicle) Update(brand, model string, year int, color string, bodyType BodyType, plate string) error {
	if bodyType != "" && !bodyType.IsValid() {
		return domain.NewValidationError("invalid body type: " + string(bodyType))
	}
	if s := strings.TrimSpace(brand); s != "" {
		v.brand = s
	}
	if s := strings.TrimSpace(model); s != "" {
		v.model = s
	}
	if year > 0 {
		v.year = year
	}
	if s := strings.TrimSpace(color); s != "" {
		v.color = s
	}
	if bodyType != "" {
		v.bodyType = bodyType
	}
	if plate != "" {
		v.plate = normalizePlate(plate)
	}
	v.version++
	v.updatedAt = time.Now().UTC()
	return nil
}

// DisplayName returns "Brand Model", the label shown in vehicle pickers.
func (v *Vehicle) DisplayName() string {
	return v.brand + " " + v.model
}
