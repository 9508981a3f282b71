package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleSuperAdmin, false},
		{RoleSuperAdmin, RoleAdmin, true},
		{Role("owner"), RoleUser, false},
		{Role(""), Role(""), false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s>=%s", tt.role, tt.min), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.min))
		})
	}
}

func TestPageFor(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Page
	}{
		{"defaults", 0, 0, Page{Limit: DefaultPageLimit, Offset: 0}},
		{"second page", 2, 10, Page{Limit: 10, Offset: 10}},
		{"limit capped", 3, 1000, Page{Limit: MaxPageLimit, Offset: 2 * MaxPageLimit}},
		{"negative page", -4, 5, Page{Limit: 5, Offset: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageFor(tt.page, tt.limit))
		})
	}
}

func TestSaleStatus(t *testing.T) {
	assert.Equal(t, StatusSold, SaleStatus("  SOLD ").Normalize())
	assert.True(t, StatusSold.IsSold())
	assert.False(t, StatusOrderCreated.IsSold())
	assert.Equal(t, "UPDATE_SALE_STATUS_TO_ORDER_CREATED", SaleStatusAction(StatusOrderCreated))
	assert.Equal(t, "UPDATE_SALE_STATUS_TO_SOLD", SaleStatusAction(StatusSold))
}

type transferInput struct {
	From     int64           `json:"from_location_id" validate:"required,gt=0"`
	To       int64           `json:"to_location_id" validate:"required,gt=0,nefield=From"`
	Quantity decimal.Decimal `json:"quantity" validate:"decimal_gt=0,decimal_scale=4"`
	Email    string          `json:"email" validate:"omitempty,email"`
	Tax      decimal.Decimal `json:"tax" validate:"decimal_gte=0,decimal_lte=100"`
}

func TestValidate(t *testing.T) {
	valid := transferInput{From: 1, To: 2, Quantity: decimal.RequireFromString("0.5")}

	tests := []struct {
		name   string
		mutate func(*transferInput)
		field  string
		reason string
	}{
		{"missing source", func(in *transferInput) { in.From = 0 }, "from_location_id", "is required"},
		{"same location", func(in *transferInput) { in.To = in.From }, "to_location_id", "must differ from From"},
		{"zero quantity", func(in *transferInput) { in.Quantity = decimal.Zero }, "quantity", "must be greater than 0"},
		{"negative quantity", func(in *transferInput) { in.Quantity = decimal.NewFromInt(-3) }, "quantity", "must be greater than 0"},
		{"bad email", func(in *transferInput) { in.Email = "nope" }, "email", "must be a valid email"},
		{"too many decimal places", func(in *transferInput) { in.Quantity = decimal.RequireFromString("0.00001") }, "quantity", "must have at most 4 decimal places"},
		{"tiny negative quantity", func(in *transferInput) { in.Quantity = decimal.RequireFromString("-0.0001") }, "quantity", "must be greater than 0"},
		{"tax over bound", func(in *transferInput) { in.Tax = decimal.RequireFromString("100.0001") }, "tax", "must be at most 100"},
		{"negative tax", func(in *transferInput) { in.Tax = decimal.RequireFromString("-0.5") }, "tax", "must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			err := Validate(in)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}

	assert.NoError(t, Validate(valid))
}

func TestValidate_DecimalsAreExact(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		tax      string
	}{
		{"smallest positive quantity", "0.0001", "0"},
		{"trailing zeros beyond scale", "1.500000", "0"},
		{"large quantity", "99999999999999.9999", "0"},
		{"tax at bound", "1", "100"},
		{"tax with extra zeros at bound", "1", "100.000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := transferInput{
				From:     1,
				To:       2,
				Quantity: decimal.RequireFromString(tt.quantity),
				Tax:      decimal.RequireFromString(tt.tax),
			}

			assert.NoError(t, Validate(in))
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("insufficient stock", func(t *testing.T) {
		err := fmt.Errorf("transfer: %w", &InsufficientStockError{
			ProductID: 1, LocationID: 2, Requested: decimal.NewFromInt(5), Available: decimal.NewFromInt(3),
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.True(t, IsClientError(err))
		assert.Contains(t, err.Error(), "available 3, requested 5")
	})

	t.Run("not found", func(t *testing.T) {
		err := &NotFoundError{Entity: EntitySale, ID: 9}
		assert.True(t, IsNotFound(err))
		assert.False(t, IsClientError(err))
		assert.Equal(t, "SALE 9 not found", err.Error())
	})

	t.Run("persistence keeps cause", func(t *testing.T) {
		cause := errors.New("disk I/O error")
		err := &PersistenceError{Op: "upsert inventory", Err: cause}
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("audit failure", func(t *testing.T) {
		cause := Invalid("reference", "unknown user")
		err := &AuditError{Action: ActionCreateSale, UserID: 4, Entity: EntitySale, EntityID: Int64Ptr(7), Err: cause}
		assert.ErrorIs(t, err, ErrAuditFailure)
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "CREATE_SALE by user 4 on SALE 7")
	})
}
