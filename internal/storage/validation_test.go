package storage

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/Veraticus/campus-bazaar/internal/model"
)

func TestValidateContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	if err := validateContext(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("Expected ErrNilContext, got %v", err)
	}
	if err := validateContext(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidateListings(t *testing.T) {
	tests := []struct {
		name     string
		listings []model.Listing
		wantErr  bool
	}{
		{name: "nil", listings: nil},
		{name: "valid", listings: []model.Listing{{ID: 1, PriceMinorUnits: big.NewInt(0)}, {ID: 2, PriceMinorUnits: big.NewInt(5)}}},
		{name: "empty slot", listings: []model.Listing{{ID: 0, PriceMinorUnits: big.NewInt(1)}}, wantErr: true},
		{name: "duplicate", listings: []model.Listing{{ID: 1, PriceMinorUnits: big.NewInt(1)}, {ID: 1, PriceMinorUnits: big.NewInt(1)}}, wantErr: true},
		{name: "negative price", listings: []model.Listing{{ID: 1, PriceMinorUnits: big.NewInt(-1)}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateListings(tt.listings)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateListings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidListing) {
				t.Errorf("Expected ErrInvalidListing, got %v", err)
			}
		})
	}
}

func TestValidateOperation(t *testing.T) {
	valid := model.Operation{ID: "x", Kind: model.OperationPay, Stage: model.StageIdle, StartedAt: time.Now()}

	tests := []struct {
		name    string
		mutate  func(*model.Operation)
		wantErr error
	}{
		{name: "valid", mutate: func(*model.Operation) {}},
		{name: "missing id", mutate: func(op *model.Operation) { op.ID = " " }, wantErr: ErrInvalidOperation},
		{name: "unknown kind", mutate: func(op *model.Operation) { op.Kind = "refund" }, wantErr: ErrInvalidOperation},
		{name: "unknown stage", mutate: func(op *model.Operation) { op.Stage = "mined" }, wantErr: ErrInvalidOperation},
		{name: "missing start", mutate: func(op *model.Operation) { op.StartedAt = time.Time{} }, wantErr: ErrInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := valid
			tt.mutate(&op)
			err := validateOperation(&op)
			if tt.wantErr == nil && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if err := validateOperation(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("Expected ErrNilParameter, got %v", err)
	}
}
